/*
Package domain contains the core domain models for the Androfit agent runtime.

It defines the fundamental entities of a voice agent session: the agent
Profile, conversation Messages and Transcripts, audio Frames, Jobs handed to
the worker, and the Session snapshot that gets persisted between turns. This
package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Profile: The agent persona (name, instructions, greeting).
  - Message / Transcript: The conversation history exchanged with the model.
  - Frame: A chunk of PCM16 audio flowing through the media pipeline.
  - Job: A unit of work dispatched to the worker (one session per job).
  - Session: The persisted runtime snapshot of an agent session.
*/
package domain
