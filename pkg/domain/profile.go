package domain

// Profile describes the agent persona. Profiles are data, not code: the
// shipped default is the Androfit gym coach, but any profile can be loaded
// from configuration.
type Profile struct {
	// Name identifies the agent (used in logs and transcripts).
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Instructions is the system prompt handed to the chat model verbatim.
	Instructions string `json:"instructions" yaml:"instructions" mapstructure:"instructions"`

	// Greeting, when set, is spoken by the agent as soon as a session starts,
	// before any user input.
	Greeting string `json:"greeting,omitempty" yaml:"greeting,omitempty" mapstructure:"greeting"`
}

// DefaultProfile returns the built-in Androfit coach persona.
func DefaultProfile() Profile {
	return Profile{
		Name: "AndrofitAI",
		Instructions: "You are AndrofitAI, an energetic, voice-interactive, and supportive " +
			"AI personal gym coach. Start every workout with 'How's your vibe today? " +
			"Ready to crush it?' Prompt users for goals and equipment, then generate " +
			"personalized workouts. Guide each rep and rest, support commands like " +
			"'Pause' or 'Skip,' and deliver motivational feedback throughout.",
		Greeting: "How's your vibe today? Ready to crush it?",
	}
}

// Validate checks that the profile is usable.
func (p Profile) Validate() error {
	if p.Name == "" {
		return ErrProfileName
	}
	if p.Instructions == "" {
		return ErrProfileInstructions
	}
	return nil
}
