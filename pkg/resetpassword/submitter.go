package resetpassword

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/weberc2/resetui/pkg/client"
	"github.com/weberc2/resetui/pkg/criteria"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRedirectDelay = 2 * time.Second
	DefaultHomeLocation  = "/"
)

// Resetter performs the password reset against the backend.
// `*client.Client` implements it.
type Resetter interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Draft is the password / confirmation pair as typed by the user.
type Draft struct {
	Password        string `json:"-"`
	ConfirmPassword string `json:"-"`
}

// Submitter turns a form submission into an `Outcome`. At most one call to
// `Resetter` is in flight per token and password; concurrent identical
// submissions wait for and share its outcome. The shared call runs until it
// completes or until every submission waiting on it has given up.
type Submitter struct {
	Resetter Resetter

	// HomeLocation is where successful submissions redirect to. Defaults to
	// `DefaultHomeLocation`.
	HomeLocation string

	// RedirectDelay is how long the success message is shown before
	// redirecting. Defaults to `DefaultRedirectDelay`.
	RedirectDelay time.Duration

	inflight singleflight.Group

	lock    sync.Mutex
	flights map[string]*flight
	nextID  uint64
}

// flight is the lifetime of one shared `Resetter` call.
type flight struct {
	draft   string
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Submit checks the token, then the password rules, and only then calls the
// backend.
func (s *Submitter) Submit(
	ctx context.Context,
	token string,
	draft *Draft,
) Outcome {
	if token == "" {
		return missingToken()
	}

	if !criteria.Evaluate(draft.Password, draft.ConfirmPassword).AllValid {
		return validationFailed()
	}

	f := s.join(ctx, token+"\x00"+draft.Password)
	defer s.leave(f)

	select {
	case result := <-s.inflight.DoChan(f.key, func() (interface{}, error) {
		return s.reset(f.ctx, token, draft.Password), nil
	}):
		return result.Val.(Outcome)
	case <-ctx.Done():
		return serverError(MessageServerFallback, ctx.Err())
	}
}

// join registers `ctx` as waiting on the flight for `draftKey`, starting a
// new flight if none is open. The flight's context keeps the values of the
// first submission's context but none of its cancellation.
func (s *Submitter) join(ctx context.Context, draftKey string) *flight {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.flights == nil {
		s.flights = map[string]*flight{}
	}
	f, found := s.flights[draftKey]
	if !found {
		s.nextID++
		c, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			draft:  draftKey,
			key:    draftKey + "\x00" + strconv.FormatUint(s.nextID, 10),
			ctx:    c,
			cancel: cancel,
		}
		s.flights[draftKey] = f
	}
	f.waiters++
	return f
}

// leave cancels the flight once its last waiter is gone.
func (s *Submitter) leave(f *flight) {
	s.lock.Lock()
	defer s.lock.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(s.flights, f.draft)
}

func (s *Submitter) reset(
	ctx context.Context,
	token string,
	password string,
) Outcome {
	if err := s.Resetter.ResetPassword(ctx, token, password); err != nil {
		var rspErr *client.ResponseError
		if errors.As(err, &rspErr) {
			if rspErr.Status >= 200 && rspErr.Status < 300 {
				return serverError(MessageUnexpected, err)
			}
			if rspErr.Message != "" {
				return serverError(rspErr.Message, err)
			}
		}
		return serverError(MessageServerFallback, err)
	}

	return Outcome{
		Kind:    OutcomeSuccess,
		Message: MessageSuccess,
		Redirect: &Redirect{
			Location: s.homeLocation(),
			After:    s.redirectDelay(),
		},
	}
}

func (s *Submitter) homeLocation() string {
	if s.HomeLocation == "" {
		return DefaultHomeLocation
	}
	return s.HomeLocation
}

func (s *Submitter) redirectDelay() time.Duration {
	if s.RedirectDelay <= 0 {
		return DefaultRedirectDelay
	}
	return s.RedirectDelay
}
