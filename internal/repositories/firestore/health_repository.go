package firestore

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"

	platform "github.com/fullservice-mx/api/internal/platform/firestore"
	"github.com/fullservice-mx/api/internal/repositories"
)

// HealthCheck returns a readiness probe verifying Firestore connectivity.
func HealthCheck(provider *platform.Provider) repositories.DependencyCheck {
	return repositories.DependencyCheck{
		Name: "firestore",
		Check: func(ctx context.Context) error {
			if provider == nil {
				return errors.New("firestore provider not configured")
			}
			client, err := provider.Client(ctx)
			if err != nil {
				return err
			}
			iter := client.Collections(ctx)
			if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
				return err
			}
			return nil
		},
	}
}
