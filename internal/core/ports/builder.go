package ports

import "context"

// BuilderService defines the package-manager and bundler steps that turn a
// front-end workspace into a static build artifact.
type BuilderService interface {
	// Scaffold creates a fresh project named slug inside root.
	Scaffold(ctx context.Context, root, slug string, out chan<- string) (string, error)
	// Install installs dependencies in dir. It uses the reproducible
	// lockfile mode when a lockfile is present and reports which mode ran.
	Install(ctx context.Context, dir string, out chan<- string) (mode string, output string, err error)
	// Bundle runs the production build, leaving the artifact in dir/dist.
	Bundle(ctx context.Context, dir string, out chan<- string) (string, error)
}
