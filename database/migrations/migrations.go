// Package migrations contains the application's own migrations, registered
// under the App\Migration namespace. cmd/demo imports it for its init()s.
package migrations

// Namespace is the namespace every migration in this package registers under.
const Namespace = `App\Migration`
