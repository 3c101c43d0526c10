package notification

import "fmt"

const (
	// FileWorkflowTitle is the fixed heading of a file workflow notification.
	FileWorkflowTitle = "Document Authentication Required"

	fileWorkflowMessageFormat = "A new document \"%s\" requires your review"
)

// FileWorkflowMessage renders the body of a file workflow notification.
func FileWorkflowMessage(fileName string) string {
	return fmt.Sprintf(fileWorkflowMessageFormat, fileName)
}

// FileWorkflowEvent is a request to tell a receiver that a document needs
// their attention. Identifiers may arrive as JSON strings or numbers.
type FileWorkflowEvent struct {
	ReceiverID   Text           `json:"receiverId" validate:"required"`
	SenderID     Text           `json:"senderId" validate:"required"`
	FileName     Text           `json:"fileName" validate:"required"`
	FileID       Text           `json:"fileId" validate:"required"`
	WorkflowData *WorkflowInput `json:"additionalData,omitempty"`
}

// Validate reports any of the four identifying fields being absent.
func (e *FileWorkflowEvent) Validate() error {
	return ValidateStruct(e, "Missing required fields")
}

// UserSummary is an identity reduced to the three fields a client may see.
// Extra keys in the caller's input are dropped by decoding into this type.
type UserSummary struct {
	ID                any  `json:"id"`
	DisplayName       Text `json:"displayName"`
	ArabicDisplayName Text `json:"arabicDisplayName"`
}

// OwnerDetails holds the two identities attached to a workflow step. Both are
// always serialised; an absent identity is an explicit null.
type OwnerDetails struct {
	OwnerUser            *UserSummary `json:"ownerUser"`
	AuthRequiredFromUser *UserSummary `json:"authRequiredFromUser"`
}

// WorkflowInput is the caller-supplied workflow block. Every field is optional
// and a value of the wrong JSON type falls back to the default instead of
// failing the request.
type WorkflowInput struct {
	WorkflowID   any           `json:"workflowId,omitempty"`
	FileID       any           `json:"fileId,omitempty"`
	FileName     Text          `json:"fileName,omitempty"`
	UniqueCode   any           `json:"uniqueCode,omitempty"`
	Description  any           `json:"description,omitempty"`
	UploadDate   any           `json:"uploadDate,omitempty"`
	OwnerDetails *OwnerDetails `json:"ownerDetails,omitempty"`

	AuthRequired                  OptionalBool `json:"authRequired"`
	CanForward                    OptionalBool `json:"canForward"`
	CanChangeResponsibleByManager OptionalBool `json:"canChangeResponsibleByManager"`
	CanReject                     OptionalBool `json:"canReject"`
	Status                        OptionalInt  `json:"status"`
	StepNumber                    OptionalInt  `json:"stepNumber"`

	Notes                 Text `json:"notes,omitempty"`
	FileUniqueCode        any  `json:"fileUniqueCode,omitempty"`
	FileDescription       any  `json:"fileDescription,omitempty"`
	FileOwnerName         Text `json:"fileOwnerName,omitempty"`
	FileOwnerArabicName   Text `json:"fileOwnerArabicName,omitempty"`
	ResponsibleName       Text `json:"responsibleName,omitempty"`
	ResponsibleArabicName Text `json:"responsibleArabicName,omitempty"`
}

// WorkflowPayload is the fixed-shape data block sent with a workflow
// notification. No field is omitted on the wire.
type WorkflowPayload struct {
	WorkflowID   any          `json:"workflowId"`
	FileID       any          `json:"fileId"`
	FileName     string       `json:"fileName"`
	UniqueCode   any          `json:"uniqueCode"`
	Description  any          `json:"description"`
	UploadDate   any          `json:"uploadDate"`
	OwnerDetails OwnerDetails `json:"ownerDetails"`

	AuthRequired                  bool `json:"authRequired"`
	CanForward                    bool `json:"canForward"`
	CanChangeResponsibleByManager bool `json:"canChangeResponsibleByManager"`
	CanReject                     bool `json:"canReject"`
	Status                        int  `json:"status"`
	StepNumber                    int  `json:"stepNumber"`

	ID                    string `json:"id"`
	Notes                 string `json:"notes"`
	StartDate             any    `json:"startDate"`
	FileUniqueCode        any    `json:"fileUniqueCode"`
	FileDescription       any    `json:"fileDescription"`
	FileOwnerName         string `json:"fileOwnerName"`
	FileOwnerArabicName   string `json:"fileOwnerArabicName"`
	ResponsibleName       string `json:"responsibleName"`
	ResponsibleArabicName string `json:"responsibleArabicName"`
}

// BuildWorkflowPayload fills every field of the outgoing data block for event,
// applying the business defaults: capability flags true, status 0, step 1.
func BuildWorkflowPayload(event FileWorkflowEvent) WorkflowPayload {
	in := WorkflowInput{}
	if event.WorkflowData != nil {
		in = *event.WorkflowData
	}

	var owner, responsible *UserSummary
	if in.OwnerDetails != nil {
		owner = reduceUser(in.OwnerDetails.OwnerUser)
		responsible = reduceUser(in.OwnerDetails.AuthRequiredFromUser)
	}

	fileID := firstPresent(in.FileID, event.FileID.String())

	return WorkflowPayload{
		WorkflowID:  firstPresent(in.WorkflowID, fileID),
		FileID:      fileID,
		FileName:    firstNonEmpty(in.FileName, event.FileName),
		UniqueCode:  in.UniqueCode,
		Description: in.Description,
		UploadDate:  in.UploadDate,
		OwnerDetails: OwnerDetails{
			OwnerUser:            owner,
			AuthRequiredFromUser: responsible,
		},

		AuthRequired:                  in.AuthRequired.Or(true),
		CanForward:                    in.CanForward.Or(true),
		CanChangeResponsibleByManager: in.CanChangeResponsibleByManager.Or(true),
		CanReject:                     in.CanReject.Or(true),
		Status:                        in.Status.Or(0),
		StepNumber:                    in.StepNumber.Or(1),

		ID:                    event.FileID.String(),
		Notes:                 in.Notes.String(),
		StartDate:             in.UploadDate,
		FileUniqueCode:        firstPresent(in.FileUniqueCode, in.UniqueCode),
		FileDescription:       firstPresent(in.FileDescription, in.Description),
		FileOwnerName:         firstNonEmpty(in.FileOwnerName, displayName(owner)),
		FileOwnerArabicName:   firstNonEmpty(in.FileOwnerArabicName, arabicName(owner)),
		ResponsibleName:       firstNonEmpty(in.ResponsibleName, displayName(responsible)),
		ResponsibleArabicName: firstNonEmpty(in.ResponsibleArabicName, arabicName(responsible)),
	}
}

func reduceUser(u *UserSummary) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		ArabicDisplayName: u.ArabicDisplayName,
	}
}

func displayName(u *UserSummary) Text {
	if u == nil {
		return ""
	}
	return u.DisplayName
}

func arabicName(u *UserSummary) Text {
	if u == nil {
		return ""
	}
	return u.ArabicDisplayName
}

// firstPresent returns the first value that is neither nil nor an empty string.
func firstPresent(values ...any) any {
	for _, v := range values {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
		}
		return v
	}
	return nil
}

func firstNonEmpty(values ...Text) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}
