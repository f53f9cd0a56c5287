package websocket

import (
	"context"

	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/session"
	"tempnote-be/internal/view"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MsgRefresh       = "refresh"
	MsgDelete        = "delete"
	MsgIdentity      = "identity"
	MsgCreate        = "create"
	MsgEdit          = "edit"
	MsgBlur          = "blur"
	MsgMakePermanent = "make_permanent"
)

// ViewServer binds websocket connections to view controllers.
type ViewServer struct {
	hub    *Hub
	notes  view.NoteGateway
	tokens *session.Tokens
	opts   view.Options
	logger logger.ILogger
}

func NewViewServer(hub *Hub, notes view.NoteGateway, tokens *session.Tokens, opts view.Options, log logger.ILogger) *ViewServer {
	opts.Logger = log
	return &ViewServer{hub: hub, notes: notes, tokens: tokens, opts: opts, logger: log}
}

// ServeList runs the listing screen, with note creation, until the peer
// disconnects.
func (s *ViewServer) ServeList(conn *websocket.Conn, identity *session.Identity) {
	client := newClient(s.hub, conn, "list", s.logger)
	provider := session.NewProvider(identity)
	list := view.NewListView(s.notes, provider, client.Session, s.opts)
	composer := view.NewComposer(s.notes, provider, client.Session, s.opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.hub.Register(client)
	go client.writePump()

	list.Mount(ctx)
	client.readPump(func(msg ClientMessage) {
		switch msg.Type {
		case MsgRefresh:
			list.Refresh(ctx)
		case MsgDelete:
			id, err := uuid.Parse(msg.Id)
			if err != nil {
				client.Session.Notify(view.Toast{Title: "Error", Description: "Invalid note id", Variant: view.VariantDestructive})
				return
			}
			list.Delete(ctx, id)
		case MsgCreate:
			composer.SetContent(msg.Content)
			composer.Submit(ctx)
		case MsgIdentity:
			s.switchIdentity(provider, client.Session, msg.Token)
		default:
			s.logger.Debug("ViewServer", "Unknown list message", map[string]interface{}{"type": msg.Type})
		}
	})

	composer.Close()
	list.Unmount()
	s.hub.Unregister(client)
	client.shutdown()
}

// ServeDetail runs the detail screen of one note until the peer disconnects.
func (s *ViewServer) ServeDetail(conn *websocket.Conn, id uuid.UUID, identity *session.Identity) {
	client := newClient(s.hub, conn, "detail", s.logger)
	provider := session.NewProvider(identity)
	detail := view.NewDetailView(id, s.notes, provider, client.Session, s.opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.hub.Register(client)
	go client.writePump()

	detail.Mount(ctx)
	client.readPump(func(msg ClientMessage) {
		switch msg.Type {
		case MsgEdit:
			detail.Edit(msg.Content)
		case MsgBlur:
			detail.Blur(ctx)
		case MsgMakePermanent:
			detail.MakePermanent(ctx)
		case MsgIdentity:
			s.switchIdentity(provider, client.Session, msg.Token)
		default:
			s.logger.Debug("ViewServer", "Unknown detail message", map[string]interface{}{"type": msg.Type})
		}
	})

	detail.Unmount()
	s.hub.Unregister(client)
	client.shutdown()
}

// switchIdentity signs the view in with token, or out when token is empty.
func (s *ViewServer) switchIdentity(provider *session.Provider, presenter view.Presenter, token string) {
	if token == "" {
		provider.SignOut()
		return
	}
	identity, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Warn("ViewServer", "Rejected identity token", map[string]interface{}{"error": err})
		presenter.Notify(view.Toast{
			Title:       "Authentication required",
			Description: "Your session is invalid, please login again",
			Variant:     view.VariantDestructive,
		})
		return
	}
	provider.SignIn(identity)
}
