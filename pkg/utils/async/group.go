package async

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/FNNDSC/covidnet-generate-dataset/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Group runs functions in their own goroutines and waits for all of them.
// A panic in a function is recovered, logged with its stack and returned by
// Wait as an error. The zero value is ready to use.
type Group struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// Go executes fn in a new goroutine with ctx
func (g *Group) Go(ctx context.Context, fn func(ctx context.Context) error) {
	g.wg.Add(1)

	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
				g.append(goerr.New("panic in async handler", goerr.V("recover", r)))
			}
		}()

		if err := fn(ctx); err != nil {
			g.append(err)
		}
	}()
}

// Wait blocks until every function has returned and joins their errors
func (g *Group) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Group) append(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = append(g.errs, err)
}
