/*
Package ports defines the driven-side interfaces of the agent runtime.

Following Hexagonal Architecture, the session core depends only on these
interfaces; adapters (redis, memory, openai, mcp) implement them. This keeps
the voice loop testable with in-memory fakes and lets deployments swap
backends without touching the core.
*/
package ports
