package logx

const (
	FieldAddr        = "addr"
	FieldClassID     = "class-id"
	FieldClients     = "clients"
	FieldDesignation = "designation"
	FieldDurationMs  = "duration-ms"
	FieldHTTPMethod  = "http-method"
	FieldPath        = "path"
	FieldPoints      = "points"
	FieldRemoteAddr  = "remote-addr"
	FieldRequestID   = "request-id"
	FieldStatus      = "status"
	FieldWorksheetID = "worksheet-id"
)
