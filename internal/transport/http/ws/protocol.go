package ws

import (
	"encoding/json"

	"github.com/coder/websocket"
)

// Поддерживаемые подпротоколы.
const (
	// ProtocolTransportWS — актуальный протокол graphql-transport-ws (graphql-ws v5+).
	ProtocolTransportWS = "graphql-transport-ws"
	// ProtocolLegacyWS — протокол subscriptions-transport-ws (Apollo), подпротокол "graphql-ws".
	ProtocolLegacyWS = "graphql-ws"
)

// Типы сообщений.
const (
	msgConnectionInit      = "connection_init"
	msgConnectionAck       = "connection_ack"
	msgConnectionTerminate = "connection_terminate"
	msgPing                = "ping"
	msgPong                = "pong"
	msgKeepAlive           = "ka"
	msgError               = "error"
	msgComplete            = "complete"
)

// Коды закрытия graphql-transport-ws; применяются к обоим протоколам.
const (
	closeBadRequest   websocket.StatusCode = 4400
	closeUnauthorized websocket.StatusCode = 4401
	closeForbidden    websocket.StatusCode = 4403
	closeInitTimeout  websocket.StatusCode = 4408
	closeDuplicateID  websocket.StatusCode = 4409
	closeTooManyInits websocket.StatusCode = 4429
)

// message — конверт обоих протоколов.
type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// protocol описывает различия в именах сообщений между подпротоколами.
type protocol struct {
	name  string
	start string // клиент: запуск операции
	stop  string // клиент: остановка операции
	data  string // сервер: очередной результат
	// keepAlive — сервер периодически шлёт "ka" (только legacy).
	keepAlive bool
}

var (
	transportWS = protocol{name: ProtocolTransportWS, start: "subscribe", stop: msgComplete, data: "next"}
	legacyWS    = protocol{name: ProtocolLegacyWS, start: "start", stop: "stop", data: "data", keepAlive: true}
)

// protocolFor выбирает протокол по согласованному подпротоколу.
// Клиент без подпротокола обслуживается как graphql-transport-ws.
func protocolFor(subprotocol string) protocol {
	if subprotocol == ProtocolLegacyWS {
		return legacyWS
	}
	return transportWS
}
