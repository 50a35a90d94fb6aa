// Package server provides HTTP routing, middleware and the read-only preview handler for the favorites data.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /path").
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Preview
//
// [FavoritesHandler] serves what a sync produced: the manifest, the processed covers and the run history.
// It never writes; running a sync while the server is up is safe because every output is replaced atomically.
package server
