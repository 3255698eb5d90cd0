package tavus

// ConversationProperties controls the provider-side behaviour of a call.
type ConversationProperties struct {
	MaxCallDuration        int  `json:"max_call_duration"`
	EnableRecording        bool `json:"enable_recording"`
	ParticipantLeftTimeout int  `json:"participant_left_timeout"`
}

// ConversationRequest is the body of POST /conversations.
type ConversationRequest struct {
	PersonaID             string                 `json:"persona_id"`
	ConversationName      string                 `json:"conversation_name"`
	ConversationalContext string                 `json:"conversational_context"`
	Properties            ConversationProperties `json:"properties"`
	CustomMetadata        map[string]any         `json:"custom_metadata,omitempty"`
}

// Conversation is the provider's answer to a create request.
type Conversation struct {
	ConversationID   string `json:"conversation_id"`
	ConversationURL  string `json:"conversation_url"`
	ConversationName string `json:"conversation_name,omitempty"`
	Status           string `json:"status,omitempty"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}
