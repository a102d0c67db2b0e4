// Package bootstrap runs a service's lifecycle:
//
//  1. start registered components (database, telemetry)
//  2. OnStart hooks
//  3. OnConfigure callbacks, which wire the business layer and may
//     register more components (the HTTP server)
//  4. start the components registered in step 3
//  5. ready check, OnReady hooks, startup summary
//  6. wait for SIGINT/SIGTERM (Run) or for a task to finish (RunTask)
//  7. OnStop hooks, then stop components in reverse order
package bootstrap
