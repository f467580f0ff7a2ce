package network

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

// Session bus coordinates of the daemon
const (
	BusName    = "dev.land.Autoclicker"
	ObjectPath = dbus.ObjectPath("/dev/land/Autoclicker")
	Interface  = "dev.land.Autoclicker1"
)

// dbusObject is exported on the bus. godbus maps its exported methods to
// D-Bus methods of the same name.
type dbusObject struct {
	ctx     context.Context
	handler RequestHandler
}

// Request takes an encoded request and returns the encoded reply.
func (o *dbusObject) Request(msg string) (string, *dbus.Error) {
	return string(o.handler.Handle(o.ctx, []byte(msg))), nil
}

// DBusServer owns the well-known name on the session bus
type DBusServer struct {
	handler RequestHandler
	log     *logging.Logger
}

// NewDBusServer creates a server that forwards Request calls to handler.
func NewDBusServer(handler RequestHandler) *DBusServer {
	return &DBusServer{handler: handler, log: logging.New("DBus")}
}

// Serve claims BusName and serves until ctx is cancelled.
func (s *DBusServer) Serve(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("could not start dbus session: %w", err)
	}
	defer conn.Close()

	obj := &dbusObject{ctx: ctx, handler: s.handler}
	if err := conn.Export(obj, ObjectPath, Interface); err != nil {
		return fmt.Errorf("export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{{
			Name:    Interface,
			Methods: introspect.Methods(obj),
		}},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", BusName)
	}
	s.log.Infof("listening as %s", BusName)

	<-ctx.Done()

	if _, err := conn.ReleaseName(BusName); err != nil {
		s.log.Warnf("release name: %v", err)
	}
	return nil
}

// DBusClient calls the daemon over the session bus
type DBusClient struct{}

// NewDBusClient creates a session bus client.
func NewDBusClient() *DBusClient {
	return &DBusClient{}
}

func (c *DBusClient) Send(ctx context.Context, msg protocol.Message) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not start dbus session: %w", err)
	}
	defer conn.Close()

	var reply string
	call := conn.Object(BusName, ObjectPath).CallWithContext(ctx, Interface+".Request", 0, protocol.EncodeString(msg))
	if err := call.Store(&reply); err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	return checkReply([]byte(reply))
}

// Ready asks the bus whether BusName has an owner.
func (c *DBusClient) Ready(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not start dbus session: %w", err)
	}
	defer conn.Close()

	var has bool
	call := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName)
	if err := call.Store(&has); err != nil {
		return fmt.Errorf("could not check if name has owner: %w", err)
	}
	if !has {
		return fmt.Errorf("%w: %s has no owner", ErrNotRunning, BusName)
	}
	return nil
}
