/*
Package session implements the agent session core: the conversation loop
that turns user utterances into coached replies, with tool calling,
transcript persistence, and lifecycle hooks.

A Session runs one conversation. The Manager coordinates concurrent access
to persisted sessions across goroutines and, with a DistributedLocker,
across worker replicas.
*/
package session
