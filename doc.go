/*
Package agent is the entry point for the Androfit voice agent worker: an AI
gym coach that joins media rooms, listens, and talks back.

The architecture is hexagonal. The domain types (pkg/domain) and the ports
(pkg/ports) define what the agent needs: a session store, a job queue, speech
recognition, a chat model, speech synthesis, and a media transport. Adapters
supply them: Redis or memory for storage and queueing, the OpenAI REST API
for speech and language, MCP servers for tools, and an in-process pipe
transport for tests and console use.

# Usage

Wire an Agent from configuration, then hand its job handlers to a worker:

	package main

	import (
		"context"
		"log"

		agent "github.com/androfit/agent"
		"github.com/androfit/agent/internal/config"
	)

	func main() {
		cfg, err := config.Load("")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		a, err := agent.New(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer a.Close()

		if err := a.Worker().Run(ctx); err != nil {
			log.Fatal(err)
		}
	}

For a one-off conversation (console mode, tests), create a session directly:

	s := a.NewSession("")
	fmt.Println(s.Greet(ctx))
	reply, err := s.Respond(ctx, "let's do legs today")

Every dependency can be overridden with functional options, so tests swap in
fakes without touching the network.
*/
package agent
