// Package apiserver runs the agent's inbound HTTP listener: the websocket upgrade
// endpoint executors dial in on, and, optionally, debug pprof endpoints.
package apiserver

import (
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/transport"
)

// Server is the agent's inbound HTTP listener.
type Server struct {
	bindAddr string
	echo     *echo.Echo
}

// New builds a Server that accepts executor websocket connections at /executors and
// routes them to recipient. Debug pprof endpoints are mounted only when debug is true.
func New(system *actor.System, recipient actor.Address, bindIP string, bindPort int, debug bool) *Server {
	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Any("/executors", transport.Route(system, recipient))

	if debug {
		e.Any("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
		e.Any("/debug/pprof/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
		e.Any("/debug/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
		e.Any("/debug/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
		e.Any("/debug/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	}

	return &Server{bindAddr: fmt.Sprintf("%s:%d", bindIP, bindPort), echo: e}
}

// Serve blocks, listening for executor connections, until Close is called.
func (s *Server) Serve() error {
	return s.echo.Start(s.bindAddr)
}

// Close stops the listener.
func (s *Server) Close() error {
	return s.echo.Close()
}
