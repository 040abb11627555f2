package commands

import (
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
)

func newProtectPDFCommand(a *app) *cobra.Command {
	var (
		params      pdfservices.ProtectPDFParams
		algorithm   string
		content     string
		permissions []string
	)
	cmd := a.jobCommand(jobSpec{
		use:   "protect-pdf <input.pdf>",
		short: "Encrypt a PDF with a user and/or owner password",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			p := params
			p.EncryptionAlgorithm = pdfservices.EncryptionAlgorithm(algorithm)
			p.ContentEncryption = pdfservices.ContentEncryption(content)
			p.Permissions = nil
			for _, perm := range permissions {
				p.Permissions = append(p.Permissions, pdfservices.Permission(perm))
			}
			return &pdfservices.ProtectPDFJob{Input: in[0], Params: p}, nil
		},
	})
	cmd.Flags().StringVar(&params.UserPassword, "user-password", "", "password required to open the document")
	cmd.Flags().StringVar(&params.OwnerPassword, "owner-password", "", "password required to change permissions")
	cmd.Flags().StringVar(&algorithm, "algorithm", string(pdfservices.AES256), "AES_128 or AES_256")
	cmd.Flags().StringVar(&content, "encrypt", "", "ALL_CONTENT, ALL_CONTENT_EXCEPT_METADATA or ONLY_EMBEDDED_FILES (default ALL_CONTENT)")
	cmd.Flags().StringSliceVar(&permissions, "permissions", nil, "permissions granted to the user password holder, e.g. PRINT_LOW_QUALITY,COPY_CONTENT")
	return cmd
}

func newRemoveProtectionCommand(a *app) *cobra.Command {
	var params pdfservices.RemoveProtectionParams
	cmd := a.jobCommand(jobSpec{
		use:   "remove-protection <input.pdf>",
		short: "Remove password security from a PDF",
		args:  cobra.ExactArgs(1),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			return &pdfservices.RemoveProtectionJob{Input: in[0], Params: params}, nil
		},
	})
	cmd.Flags().StringVar(&params.Password, "password", "", "current user or owner password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newElectronicSealCommand(a *app) *cobra.Command {
	var (
		params     pdfservices.ElectronicSealParams
		hidden     bool
		appearance []string
		location   []int
	)
	cmd := a.jobCommand(jobSpec{
		use:   "electronic-seal <input.pdf> [seal-image]",
		short: "Apply a certificate-backed electronic seal to a PDF",
		args:  cobra.RangeArgs(1, 2),
		build: func(in []pdfservices.Asset) (pdfservices.Job, error) {
			p := params
			if hidden {
				visible := false
				p.Field.Visible = &visible
			}
			p.AppearanceItems = nil
			for _, item := range appearance {
				p.AppearanceItems = append(p.AppearanceItems, pdfservices.SealAppearanceItem(item))
			}
			if len(location) == 4 {
				p.Field.Location = &pdfservices.SealFieldLocation{Left: location[0], Top: location[1], Right: location[2], Bottom: location[3]}
			}
			job := &pdfservices.ElectronicSealJob{Input: in[0], Params: p}
			if len(in) > 1 {
				job.SealImage = in[1]
			}
			return job, nil
		},
	})
	f := cmd.Flags()
	f.StringVar(&params.Certificate.ProviderName, "provider", "", "trust service provider name")
	f.StringVar(&params.Certificate.CredentialID, "credential-id", "", "certificate credential ID at the provider")
	f.StringVar(&params.Certificate.Pin, "pin", "", "certificate PIN")
	f.StringVar(&params.Certificate.AuthContext.AccessToken, "access-token", "", "provider access token")
	f.StringVar(&params.Certificate.AuthContext.TokenType, "token-type", "", "provider token type (default Bearer)")
	f.StringVar(&params.Field.Name, "field", "", "name of the signature field")
	f.IntVar(&params.Field.PageNumber, "page", 0, "page of the signature field (default 1)")
	f.BoolVar(&hidden, "hidden", false, "apply an invisible seal")
	f.IntSliceVar(&location, "location", nil, "field box as left,top,right,bottom when the field does not exist yet")
	f.StringSliceVar(&appearance, "appearance", nil, "items shown in the seal: NAME, LABELS, DATE, SEAL_IMAGE, DISTINGUISHED_NAME")
	for _, name := range []string{"provider", "credential-id", "pin", "access-token", "field"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
