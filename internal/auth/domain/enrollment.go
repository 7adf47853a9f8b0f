package domain

// SecondFactorEnrollment is returned once at enrollment time. The secret is
// credential-grade; after this response it exists only inside the account
// record.
type SecondFactorEnrollment struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}
