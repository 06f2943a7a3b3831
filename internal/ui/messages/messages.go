// internal/ui/messages/messages.go

package messages

import (
	"sftpTerm/internal/api"
	"sftpTerm/internal/models"
)

// ConnectedMsg kończy próbę połączenia z widoku połączeń. Save mówi, czy
// profil ma trafić do rejestru po udanym połączeniu.
type ConnectedMsg struct {
	Profile models.Profile
	Save    bool
	Result  api.Result
}

// DisconnectedMsg wysyłany po rozłączeniu (ręcznym albo gdy powłoka się zamknęła)
type DisconnectedMsg struct {
	Reason string
}

// ShellOutputMsg to kolejny fragment wyjścia zdalnej powłoki
type ShellOutputMsg []byte

// ShellClosedMsg oznacza koniec strumienia powłoki
type ShellClosedMsg struct{}

// ListedMsg to wynik odświeżenia panelu
type ListedMsg struct {
	Remote bool
	Result api.Result
}

// OperationMsg to wynik operacji na plikach. Retry ponawia ją z sudo.
type OperationMsg struct {
	Op     string
	Result api.Result
	Retry  func() api.Result
}

// SavePromptMsg prosi UI o ścieżkę zapisu; odpowiedź idzie na Reply
type SavePromptMsg struct {
	Suggested string
	Reply     chan<- string
}
