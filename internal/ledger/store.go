package ledger

import (
	"context"

	"github.com/dstepanenko/chainvault/internal/models"
)

// State is the ledger's full persisted state: the core block chain plus the
// per-file event chains. The chain is small enough to be rewritten
// wholesale on every mutation, which keeps the store contract trivial.
type State struct {
	Blocks []models.Block                  `json:"blocks"`
	Events map[string][]models.AccessEvent `json:"events"`
}

// Clone deep-copies the state so callers can hand it to a store without
// racing subsequent mutations.
func (s *State) Clone() *State {
	out := &State{
		Blocks: make([]models.Block, len(s.Blocks)),
		Events: make(map[string][]models.AccessEvent, len(s.Events)),
	}
	for i, b := range s.Blocks {
		if b.Metadata != nil {
			md := *b.Metadata
			b.Metadata = &md
		}
		b.AuthorizedUsers = append([]string(nil), b.AuthorizedUsers...)
		b.AccessLogs = nil
		out.Blocks[i] = b
	}
	for fileID, events := range s.Events {
		out.Events[fileID] = append([]models.AccessEvent(nil), events...)
	}
	return out
}

// Store persists ledger state with load-everything / save-everything
// semantics. Implementations must make Save atomic: a reader never observes
// a half-written chain.
type Store interface {
	// Load returns the persisted state, or an empty state if none exists.
	Load(ctx context.Context) (*State, error)

	// Save replaces the persisted state.
	Save(ctx context.Context, state *State) error
}
