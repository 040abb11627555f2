package pdfservices

type EncryptionAlgorithm string

const (
	AES128 EncryptionAlgorithm = "AES_128"
	AES256 EncryptionAlgorithm = "AES_256"
)

type ContentEncryption string

const (
	EncryptAllContent               ContentEncryption = "ALL_CONTENT"
	EncryptAllContentExceptMetadata ContentEncryption = "ALL_CONTENT_EXCEPT_METADATA"
	EncryptOnlyEmbeddedFilesContent ContentEncryption = "ONLY_EMBEDDED_FILES"
)

type Permission string

const (
	PermissionPrintLowQuality      Permission = "PRINT_LOW_QUALITY"
	PermissionPrintHighQuality     Permission = "PRINT_HIGH_QUALITY"
	PermissionEditContent          Permission = "EDIT_CONTENT"
	PermissionEditDocumentAssembly Permission = "EDIT_DOCUMENT_ASSEMBLY"
	PermissionEditAnnotations      Permission = "EDIT_ANNOTATIONS"
	PermissionEditFillAndSignForms Permission = "EDIT_FILL_AND_SIGN_FORM_FIELDS"
	PermissionCopyContent          Permission = "COPY_CONTENT"
)

// ProtectPDFParams need an algorithm and at least one password. Permissions
// restrict what the user password grants and so require OwnerPassword.
type ProtectPDFParams struct {
	EncryptionAlgorithm EncryptionAlgorithm `json:"encryptionAlgorithm" validate:"required,oneof=AES_128 AES_256"`
	UserPassword        string              `json:"userPassword,omitempty" validate:"required_without=OwnerPassword,max=128"`
	OwnerPassword       string              `json:"ownerPassword,omitempty" validate:"required_with=Permissions,max=128"`
	ContentEncryption   ContentEncryption   `json:"contentToEncrypt,omitempty" validate:"omitempty,oneof=ALL_CONTENT ALL_CONTENT_EXCEPT_METADATA ONLY_EMBEDDED_FILES"`
	Permissions         []Permission        `json:"permissions,omitempty" validate:"omitempty,dive,oneof=PRINT_LOW_QUALITY PRINT_HIGH_QUALITY EDIT_CONTENT EDIT_DOCUMENT_ASSEMBLY EDIT_ANNOTATIONS EDIT_FILL_AND_SIGN_FORM_FIELDS COPY_CONTENT"`
}

type ProtectPDFJob struct {
	Input  Input
	Params ProtectPDFParams
	Output *ExternalAsset
}

func (j *ProtectPDFJob) Operation() Operation { return OperationProtectPDF }
func (j *ProtectPDFJob) Validate() error      { return validateJob(j) }

func (j *ProtectPDFJob) request() (*jobRequest, error) {
	params := j.Params
	if params.ContentEncryption == "" {
		params.ContentEncryption = EncryptAllContent
	}
	if params.UserPassword != "" && params.UserPassword == params.OwnerPassword {
		return nil, validationError("ownerPassword", "must differ from userPassword")
	}
	return singleInput(j.Input, j.Output, params, MediaTypePDF)
}

type RemoveProtectionParams struct {
	Password string `json:"password" validate:"required"`
}

type RemoveProtectionJob struct {
	Input  Input
	Params RemoveProtectionParams
	Output *ExternalAsset
}

func (j *RemoveProtectionJob) Operation() Operation { return OperationRemoveProtection }
func (j *RemoveProtectionJob) Validate() error      { return validateJob(j) }

func (j *RemoveProtectionJob) request() (*jobRequest, error) {
	return singleInput(j.Input, j.Output, j.Params, MediaTypePDF)
}

// SealAuthContext is the token of the trust service provider.
type SealAuthContext struct {
	AccessToken string `json:"accessToken" validate:"required"`
	TokenType   string `json:"tokenType,omitempty"`
}

type SealCertificate struct {
	ProviderName string          `json:"providerName" validate:"required"`
	CredentialID string          `json:"credentialID" validate:"required"`
	Pin          string          `json:"pin" validate:"required"`
	AuthContext  SealAuthContext `json:"authorizationContext"`
}

// SealFieldLocation is the signature box in PDF user space units.
type SealFieldLocation struct {
	Left   int `json:"left" validate:"gte=0"`
	Top    int `json:"top" validate:"gte=0"`
	Right  int `json:"right" validate:"gtefield=Left"`
	Bottom int `json:"bottom" validate:"gte=0"`
}

type SealField struct {
	Name       string             `json:"fieldName" validate:"required"`
	PageNumber int                `json:"pageNumber,omitempty" validate:"gte=0"`
	Visible    *bool              `json:"visible,omitempty"`
	Location   *SealFieldLocation `json:"fieldLocation,omitempty" validate:"omitempty"`
}

type SealAppearanceItem string

const (
	SealAppearanceName      SealAppearanceItem = "NAME"
	SealAppearanceLabels    SealAppearanceItem = "LABELS"
	SealAppearanceDate      SealAppearanceItem = "DATE"
	SealAppearanceSealImage SealAppearanceItem = "SEAL_IMAGE"
	SealAppearanceDN        SealAppearanceItem = "DISTINGUISHED_NAME"
)

type ElectronicSealParams struct {
	Certificate     SealCertificate      `json:"certificateCredentials"`
	Field           SealField            `json:"sealFieldOptions"`
	AppearanceItems []SealAppearanceItem `json:"sealAppearanceOptions,omitempty" validate:"omitempty,dive,oneof=NAME LABELS DATE SEAL_IMAGE DISTINGUISHED_NAME"`
}

// ElectronicSealJob applies a certificate-backed seal. SealImage is optional.
type ElectronicSealJob struct {
	Input     Input
	SealImage Input
	Params    ElectronicSealParams
	Output    *ExternalAsset
}

func (j *ElectronicSealJob) Operation() Operation { return OperationElectronicSeal }
func (j *ElectronicSealJob) Validate() error      { return validateJob(j) }

func (j *ElectronicSealJob) request() (*jobRequest, error) {
	params := j.Params
	if params.Certificate.AuthContext.TokenType == "" {
		params.Certificate.AuthContext.TokenType = "Bearer"
	}
	if params.Field.PageNumber == 0 {
		params.Field.PageNumber = 1
	}
	if params.Field.Visible == nil {
		visible := true
		params.Field.Visible = &visible
	}
	req, err := singleInput(j.Input, j.Output, params, MediaTypePDF)
	if err != nil {
		return nil, err
	}
	if j.SealImage != nil {
		img, err := resolveInput("sealImage", j.SealImage, MediaTypeJPEG, MediaTypePNG)
		if err != nil {
			return nil, err
		}
		img.Role = "sealImage"
		req.Assets = []assetRef{img}
	}
	return req, nil
}
