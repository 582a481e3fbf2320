package model

// Field keys shared by the profile normalizer and the enrichment routing
// table. The resolver emits eligible fields in a fixed order keyed on these.
const (
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldJobTitle       = "jobTitle"
	FieldLinkedInURL    = "linkedinUrl"
	FieldCompanyName    = "companyName"
	FieldSkills         = "skills"
	FieldLocation       = "location"
	FieldIndustry       = "industry"
	FieldCurrentCompany = "currentCompany"
	FieldExperience     = "experience"
	FieldEducation      = "education"
	FieldLanguages      = "languages"
	FieldCertifications = "certifications"
	FieldInterests      = "interests"
	FieldSocialProfiles = "socialProfiles"
	FieldWebsites       = "websites"
	FieldGithubURL      = "githubUrl"
	FieldTwitterHandle  = "twitterHandle"
	FieldPersonalEmails = "personalEmails"
	FieldWorkEmails     = "workEmails"
	FieldPhoneNumbers   = "phoneNumbers"
	FieldCompanyInfo    = "companyInfo"
)
