package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Realtime        Category = "Realtime"
)

const (
	// General
	Startup         SubCategory = "Startup"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Realtime
	Session   SubCategory = "Session"
	Broadcast SubCategory = "Broadcast"
	Snapshot  SubCategory = "Snapshot"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomId       ExtraKey = "RoomId"
	SessionId    ExtraKey = "SessionId"
	EventId      ExtraKey = "EventId"
	ErrorMessage ExtraKey = "ErrorMessage"
)
