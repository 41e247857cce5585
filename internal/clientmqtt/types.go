package clientmqtt

type MQTTConf struct {
	ClientID    string // ClientID - уникальное имя клиента для брокеров.
	Schema      string // Schema - тип подключения.
	Host        string // Host - адрес MQTT сервера.
	Port        string // Port - порт MQTT сервера.
	User        string // User - логин для подключения к MQTT серверу.
	Password    string // Password - пароль для подключения к MQTT серверу.
	Qos         byte   // Qos - качество обслуживания.
	TopicPrefix string // TopicPrefix - корень топиков, например "firmata".
}

// commandPayload is the JSON body of a <prefix>/cmd/<kind> message.
type commandPayload struct {
	Pin   uint8  `json:"pin"`
	Value uint16 `json:"value"`
	Text  string `json:"text"`
}
