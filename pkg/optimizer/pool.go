package optimizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/raykavin/signalrun/pkg/logger"
)

// runEvaluations evaluates every parameter set on at most parallelism
// goroutines and stops scheduling on the first error
func runEvaluations(
	ctx context.Context,
	evaluator Evaluator,
	parameterSets []ParameterSet,
	parallelism int,
	log logger.Logger,
) ([]*Result, error) {
	var (
		results   []*Result
		mutex     sync.Mutex
		wg        sync.WaitGroup
		errCh     = make(chan error, 1)
		semaphore = make(chan struct{}, max(parallelism, 1))
	)

	for i, params := range parameterSets {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results, ctx.Err()
		case err := <-errCh:
			wg.Wait()
			return results, err
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(index int, paramSet ParameterSet) {
			defer wg.Done()
			defer func() { <-semaphore }()

			logf(log, "Evaluating parameter set %d/%d %s", index+1, len(parameterSets), FormatParameterSet(paramSet))

			result, err := evaluator.Evaluate(ctx, paramSet)
			if err != nil {
				select {
				case errCh <- fmt.Errorf("evaluation error: %w", err):
				default:
				}
				return
			}

			mutex.Lock()
			results = append(results, result)
			mutex.Unlock()
		}(i, params)
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return results, err
	default:
		return results, nil
	}
}

func logf(log logger.Logger, format string, args ...any) {
	if log != nil {
		log.Debugf(format, args...)
	}
}
