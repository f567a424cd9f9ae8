// Package intake implements the linear product-intake dialogue: a draft
// product is accumulated one field per step and committed as a single
// insert at the end.
package intake

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"shopbot/internal/auth"
	"shopbot/internal/models"
	"shopbot/internal/services"
	"shopbot/internal/session"
)

// State is one step of the dialogue. The zero value means no active
// dialogue.
type State string

const (
	StateNone        State = ""
	StatePhoto       State = "awaiting_photo"
	StateName        State = "awaiting_name"
	StateDescription State = "awaiting_description"
	StatePrice       State = "awaiting_price"
)

// Field limits mirror the product column sizes. They are enforced at the
// step that collects the field, so a too-long answer is rejected while the
// actor can still retry it.
const (
	MaxNameLen        = 100
	MaxDescriptionLen = 500
)

var (
	// ErrNotAuthorized rejects an intake start by an actor without catalog
	// write access or outside their self-dialogue.
	ErrNotAuthorized = errors.New("intake: not authorized")

	// ErrNoActiveDialogue reports input arriving with no session; a session
	// store miss reads the same way.
	ErrNoActiveDialogue = errors.New("intake: no active dialogue")

	// ErrUnexpectedInput reports input of the wrong kind for the current
	// step. The step is not advanced; the caller re-prompts.
	ErrUnexpectedInput = errors.New("intake: unexpected input for this step")

	// ErrInvalidPrice reports a price that does not parse as a positive
	// decimal. The step is not advanced; the caller re-prompts.
	ErrInvalidPrice = errors.New("intake: invalid price")

	// ErrNameTooLong reports a name over MaxNameLen runes. The step is not
	// advanced; the caller re-prompts.
	ErrNameTooLong = errors.New("intake: name too long")

	// ErrDescriptionTooLong reports a description over MaxDescriptionLen
	// runes. The step is not advanced; the caller re-prompts.
	ErrDescriptionTooLong = errors.New("intake: description too long")
)

// Session is the draft accumulated so far plus the current step.
type Session struct {
	State       State  `json:"state"`
	Photo       string `json:"photo"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Input is one message from the actor: either an image reference or free
// text, never both.
type Input struct {
	Photo string
	Text  string
}

// Outcome reports what a step did: the next state to prompt for, or the
// commit result when the dialogue finished.
type Outcome struct {
	Next          State
	Committed     bool
	AlreadyExists bool
	Product       *models.Product
}

// Machine drives intake dialogues over a pluggable session store.
type Machine struct {
	sessions   session.Store
	catalog    *services.CatalogService
	authorizer auth.Authorizer
}

// NewMachine creates a new Machine.
func NewMachine(sessions session.Store, catalog *services.CatalogService, authorizer auth.Authorizer) *Machine {
	return &Machine{
		sessions:   sessions,
		catalog:    catalog,
		authorizer: authorizer,
	}
}

func sessionKey(actor auth.Actor) session.Key {
	return session.Key{ActorID: actor.ID, ChatID: actor.ChatID}
}

// Start opens a dialogue for the actor, gated on catalog write access.
func (m *Machine) Start(ctx context.Context, actor auth.Actor) (*Outcome, error) {
	if !m.authorizer.IsAuthorized(actor, auth.ScopeCatalogWrite) {
		return nil, ErrNotAuthorized
	}
	if err := m.sessions.Put(ctx, sessionKey(actor), Session{State: StatePhoto}); err != nil {
		return nil, err
	}
	return &Outcome{Next: StatePhoto}, nil
}

// Active returns the current step, StateNone when no dialogue is running.
func (m *Machine) Active(ctx context.Context, actor auth.Actor) (State, error) {
	var sess Session
	ok, err := m.sessions.Get(ctx, sessionKey(actor), &sess)
	if err != nil {
		return StateNone, err
	}
	if !ok {
		return StateNone, nil
	}
	return sess.State, nil
}

// Cancel discards the draft and clears the session. It reports whether a
// dialogue was actually running.
func (m *Machine) Cancel(ctx context.Context, actor auth.Actor) (bool, error) {
	key := sessionKey(actor)
	var sess Session
	ok, err := m.sessions.Get(ctx, key, &sess)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, m.sessions.Delete(ctx, key)
}

// Input feeds one message into the dialogue and advances it. The price step
// commits the draft; the session is cleared afterward whether the insert
// created a product or hit an existing name.
func (m *Machine) Input(ctx context.Context, actor auth.Actor, in Input) (*Outcome, error) {
	key := sessionKey(actor)
	var sess Session
	ok, err := m.sessions.Get(ctx, key, &sess)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveDialogue
	}

	switch sess.State {
	case StatePhoto:
		if in.Photo == "" {
			return nil, ErrUnexpectedInput
		}
		sess.Photo = in.Photo
		sess.State = StateName

	case StateName:
		name := strings.TrimSpace(in.Text)
		if name == "" || in.Photo != "" {
			return nil, ErrUnexpectedInput
		}
		if utf8.RuneCountInString(name) > MaxNameLen {
			return nil, ErrNameTooLong
		}
		sess.Name = name
		sess.State = StateDescription

	case StateDescription:
		description := strings.TrimSpace(in.Text)
		if description == "" || in.Photo != "" {
			return nil, ErrUnexpectedInput
		}
		if utf8.RuneCountInString(description) > MaxDescriptionLen {
			return nil, ErrDescriptionTooLong
		}
		sess.Description = description
		sess.State = StatePrice

	case StatePrice:
		price, err := decimal.NewFromString(strings.TrimSpace(in.Text))
		if err != nil || !price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		return m.commit(ctx, key, sess, price)

	default:
		return nil, ErrNoActiveDialogue
	}

	if err := m.sessions.Put(ctx, key, sess); err != nil {
		return nil, err
	}
	return &Outcome{Next: sess.State}, nil
}

func (m *Machine) commit(ctx context.Context, key session.Key, sess Session, price decimal.Decimal) (*Outcome, error) {
	product := &models.Product{
		Image:       sess.Photo,
		Name:        sess.Name,
		Description: sess.Description,
		Price:       price,
	}

	created, err := m.catalog.CreateProduct(ctx, product)
	if err != nil {
		// The draft survives a storage failure so the actor can retry the
		// last step.
		return nil, err
	}
	if err := m.sessions.Delete(ctx, key); err != nil {
		return nil, err
	}
	return &Outcome{
		Committed:     created,
		AlreadyExists: !created,
		Product:       product,
	}, nil
}
