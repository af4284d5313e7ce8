package dto

// EvolutionWebhookPayload is the raw message-upsert event shape the
// Evolution API gateway delivers. Fields are optional and nested
// differently per message sub-type; the webhook handler normalizes this
// into one tagged domain.RawMessage before anything else runs.
type EvolutionWebhookPayload struct {
	Event    string        `json:"event"`
	Instance string        `json:"instance"`
	Data     EvolutionData `json:"data"`
}

// EvolutionData carries one message.
type EvolutionData struct {
	Key struct {
		RemoteJid   string `json:"remoteJid"`
		FromMe      bool   `json:"fromMe"`
		ID          string `json:"id"`
		Participant string `json:"participant"`
	} `json:"key"`
	PushName string `json:"pushName"`
	// ParticipantAlt carries the sender's real phone number when present.
	ParticipantAlt string `json:"participantAlt"`
	// ContextInfo appears at this level when a plain conversation message
	// quotes another message.
	ContextInfo      *EvolutionContextInfo `json:"contextInfo"`
	Message          EvolutionMessage      `json:"message"`
	MessageType      string                `json:"messageType"`
	MessageTimestamp int64                 `json:"messageTimestamp"`
}

// EvolutionContextInfo references a quoted message.
type EvolutionContextInfo struct {
	StanzaID    string `json:"stanzaId"`
	Participant string `json:"participant"`
}

// EvolutionMessage is the per-kind payload union.
type EvolutionMessage struct {
	Conversation string `json:"conversation"`
	// MediaURL is the direct media link the gateway resolves for image
	// and document messages.
	MediaURL            string `json:"mediaUrl"`
	ExtendedTextMessage *struct {
		Text        string                `json:"text"`
		ContextInfo *EvolutionContextInfo `json:"contextInfo"`
	} `json:"extendedTextMessage"`
	ImageMessage *struct {
		URL      string `json:"url"`
		Mimetype string `json:"mimetype"`
		Caption  string `json:"caption"`
	} `json:"imageMessage"`
	DocumentMessage *struct {
		URL      string `json:"url"`
		Mimetype string `json:"mimetype"`
		FileName string `json:"fileName"`
	} `json:"documentMessage"`
	AudioMessage *struct {
		URL      string `json:"url"`
		Mimetype string `json:"mimetype"`
		Seconds  int    `json:"seconds"`
	} `json:"audioMessage"`
	VideoMessage *struct {
		URL      string `json:"url"`
		Mimetype string `json:"mimetype"`
		Caption  string `json:"caption"`
	} `json:"videoMessage"`
	StickerMessage *struct {
		URL      string `json:"url"`
		Mimetype string `json:"mimetype"`
	} `json:"stickerMessage"`
	ReactionMessage *struct {
		Text string `json:"text"`
	} `json:"reactionMessage"`
}
