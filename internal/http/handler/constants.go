package handler

const (
	msgContentTypeJSONRequired = "Content-Type must be application/json"
	msgInvalidRequestBody      = "invalid request body"

	msgUsernamePasswordRequired = "username and password are required"
	msgLoginFailed              = "invalid username or password"
	msgSessionIssueFailed       = "failed to issue session"

	msgInvalidMediaID      = "invalid media id"
	msgInvalidProjectID    = "invalid project id"
	msgMediaNotFound       = "media not found"
	msgNoFileProvided      = "no file provided"
	msgFileTooLarge        = "file exceeds the upload size limit"
	msgUnsupportedMedia    = "unsupported media type"
	msgUploadFailed        = "failed to store upload"
	msgCreateRecordFailed  = "failed to create media record"
	msgListMediaFailed     = "failed to list media"
	msgDeleteMediaFailed   = "failed to delete media"
	msgCapabilityIssueFail = "failed to issue file links"

	msgTokenRequired = "token is required"
	msgTokenRejected = "invalid or expired token"
	msgFileNotFound  = "file not found"
)
