// Package mocks provides centralized mock implementations for testing.
//
// Instead of defining inline mocks in individual test files, these
// standardized implementations are shared across test packages. Each mock
// exposes function fields so a test can override exactly the methods it
// cares about, with sensible defaults for the rest.
//
// Usage:
//
//	import "github.com/irislabs/iris-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    jwtService := &mocks.MockJWTService{
//	        GenerateTokenFn: func(ctx context.Context, userID uuid.UUID) (string, error) {
//	            return "mocked-token", nil
//	        },
//	    }
//	    // Use the mock in your test...
//	}
package mocks
