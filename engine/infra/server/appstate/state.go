package appstate

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/session"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/supervisor"
)

type contextKey string

const (
	stateKey contextKey = "app_state"
)

// State is what every handler needs: the wired app and the session store.
type State struct {
	App      *supervisor.App
	Sessions *session.Store
}

func NewState(app *supervisor.App, sessions *session.Store) (*State, error) {
	if app == nil {
		return nil, fmt.Errorf("app is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &State{App: app, Sessions: sessions}, nil
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithState(c.Request.Context(), state)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
