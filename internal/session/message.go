// Package session implements HostEndpoint and ParticipantEndpoint
// (SPEC_FULL.md §4.3, §4.4): the two bidirectional WebSocket state machines
// that drive one meeting from connect to end.
//
// Grounded on internal/websocket/notifier.go's typed, tagged-union event
// shape (SessionEvent{Type, ...}) from the teacher, adapted into the
// envelope message.go defines here for the session wire protocol of
// SPEC_FULL.md §6.
package session

import "encoding/json"

// Envelope is the wire shape of every message exchanged on a session
// WebSocket, per SPEC_FULL.md §6's message table. Only the fields relevant
// to a given Type are populated; the rest are omitted.
type Envelope struct {
	Type string `json:"type"`

	// start_meeting (S->H, on open)
	Questions  []string `json:"questions,omitempty"`
	AccessCode string   `json:"access_code,omitempty"`

	// start_meeting / next_question (both directions)
	Question string `json:"question,omitempty"`

	// end_meeting (S->H, S->P)
	URL string `json:"url,omitempty"`

	// participant_joined (P->S), update_name (S->P), participant_left (S->H)
	Name string `json:"name,omitempty"`

	// participant_joined (S->H)
	Participant *ParticipantInfo `json:"participant,omitempty"`

	// submit_answer (P->S)
	Answer string `json:"answer,omitempty"`
}

// ParticipantInfo is the payload of a participant_joined fan-in to the host.
type ParticipantInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func marshal(e Envelope) []byte {
	b, err := json.Marshal(e)
	if err != nil {
		// Envelope contains only marshalable primitives; a failure here
		// means a programming error, not a runtime condition to recover from.
		panic(err)
	}
	return b
}

func startMeetingForHost(questions []string, accessCode string) []byte {
	return marshal(Envelope{Type: "start_meeting", Questions: questions, AccessCode: accessCode})
}

func startMeetingBroadcast(question string) []byte {
	return marshal(Envelope{Type: "start_meeting", Question: question})
}

func nextQuestionBroadcast(question string) []byte {
	return marshal(Envelope{Type: "next_question", Question: question})
}

func endMeetingForHost(url string) []byte {
	return marshal(Envelope{Type: "end_meeting", URL: url})
}

func endMeetingForParticipants(url string) []byte {
	return marshal(Envelope{Type: "end_meeting", URL: url})
}

func updateName(name string) []byte {
	return marshal(Envelope{Type: "update_name", Name: name})
}

func participantJoinedForHost(name string) []byte {
	return marshal(Envelope{Type: "participant_joined", Participant: &ParticipantInfo{Name: name, Status: "Connected"}})
}

func participantLeftForHost(name string) []byte {
	return marshal(Envelope{Type: "participant_left", Name: name})
}

func answerSubmittedForHost() []byte {
	return marshal(Envelope{Type: "answer_submitted"})
}

func submitError() []byte {
	return marshal(Envelope{Type: "submit_error"})
}

func invalidAnswer() []byte {
	return marshal(Envelope{Type: "invalid_answer"})
}
