/*
Package api exposes the controller over HTTP: the git-hosting webhook
ingress that drives pushes, and a REST control plane for agents,
secrets, metrics, and logs.

Routing uses chi; handlers are thin translations between HTTP and the
controller's Go API, with no business logic of their own.
*/
package api
