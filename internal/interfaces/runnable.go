package interfaces

import "context"

// Runnable is a long-living component supervised by the process, it returns when ctx is done
type Runnable interface {
	Run(ctx context.Context) error
}
