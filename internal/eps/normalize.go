package eps

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/sells-group/enrich-cli/internal/model"
)

// defaultPhoneRegion is assumed when an EPS phone number carries no country
// prefix. Unparseable numbers pass through unchanged.
const defaultPhoneRegion = "US"

// Normalize flattens an EPS profile into the fixed-key candidate map.
// Pure and total: malformed or missing sub-structure yields absent fields,
// never an error.
func Normalize(p model.EPSProfile) model.NormalizedProfile {
	n := model.NormalizedProfile{}

	putStr := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			n[key] = model.Candidate{Value: val, Display: val}
		}
	}

	putStr(model.FieldEmail, p.Email)
	putStr(model.FieldJobTitle, p.JobTitle)
	putStr(model.FieldLinkedInURL, p.LinkedInURL)
	putStr(model.FieldCompanyName, p.CompanyName)
	putStr(model.FieldLocation, p.Location)
	putStr(model.FieldIndustry, p.Industry)

	if phone := formatPhone(p.Phone); phone != "" {
		n[model.FieldPhone] = model.Candidate{Value: phone, Display: phone}
	}

	if skills := trimAll(p.Skills); len(skills) > 0 {
		n[model.FieldSkills] = model.Candidate{
			Value:   skills,
			Display: countOf(len(skills), "skill", "skills"),
		}
	}

	raw := p.RawData

	if edu := recSeq(raw, "education"); edu != nil {
		n[model.FieldEducation] = model.Candidate{
			Value:   anySeq(edu),
			Display: countOf(len(edu), "entry", "entries"),
		}
	}

	if exp := recSeq(raw, "experience"); exp != nil {
		n[model.FieldExperience] = model.Candidate{
			Value:   anySeq(exp),
			Display: countOf(len(exp), "position", "positions"),
		}
		// The first experience entry's company sub-record is a richer
		// employer field than the flat companyName display string. It also
		// sources currentCompany, which stays a distinct attribute rather
		// than an alias of companyName.
		if company := rec(exp[0]["company"]); company != nil {
			if name := str(company, "name"); name != "" {
				info := model.CompanyInfo{Name: name, Industry: str(company, "industry")}
				n[model.FieldCompanyInfo] = model.Candidate{Value: info, Display: name}
				n[model.FieldCurrentCompany] = model.Candidate{Value: name, Display: name}
			}
		}
	}

	putStrSeq := func(key, docKey, singular, plural string) {
		if vals := strSeq(raw, docKey); vals != nil {
			n[key] = model.Candidate{Value: vals, Display: countOf(len(vals), singular, plural)}
		}
	}
	putStrSeq(model.FieldLanguages, "languages", "language", "languages")
	putStrSeq(model.FieldCertifications, "certifications", "certification", "certifications")
	putStrSeq(model.FieldInterests, "interests", "interest", "interests")

	if phones := strSeq(raw, "phone_numbers"); phones != nil {
		formatted := make([]string, 0, len(phones))
		for _, ph := range phones {
			if f := formatPhone(ph); f != "" {
				formatted = append(formatted, f)
			}
		}
		if len(formatted) > 0 {
			n[model.FieldPhoneNumbers] = model.Candidate{
				Value:   formatted,
				Display: countOf(len(formatted), "number", "numbers"),
			}
		}
	}

	if profiles := recSeq(raw, "profiles"); profiles != nil {
		n[model.FieldSocialProfiles] = model.Candidate{
			Value:   anySeq(profiles),
			Display: countOf(len(profiles), "profile", "profiles"),
		}
		if link := profileLink(findProfile(profiles, "twitter")); link != "" {
			n[model.FieldTwitterHandle] = model.Candidate{Value: link, Display: link}
		}
		if link := profileLink(findProfile(profiles, "github")); link != "" {
			n[model.FieldGithubURL] = model.Candidate{Value: link, Display: link}
		}
		if link := profileLink(findProfile(profiles, "website")); link != "" {
			n[model.FieldWebsites] = model.Candidate{Value: []string{link}, Display: link}
		}
	}

	work, personal := partitionEmails(recSeq(raw, "emails"))
	if len(work) > 0 {
		n[model.FieldWorkEmails] = model.Candidate{
			Value:   work,
			Display: countOf(len(work), "email", "emails"),
		}
	}
	if len(personal) > 0 {
		n[model.FieldPersonalEmails] = model.Candidate{
			Value:   personal,
			Display: countOf(len(personal), "email", "emails"),
		}
	}

	return n
}

// partitionEmails splits typed email entries into work and personal buckets.
func partitionEmails(entries []map[string]any) (work, personal []string) {
	for _, e := range entries {
		addr := str(e, "address")
		if addr == "" {
			continue
		}
		switch strings.ToLower(str(e, "type")) {
		case "work":
			work = append(work, addr)
		case "personal":
			personal = append(personal, addr)
		}
	}
	return work, personal
}

// formatPhone renders a phone number in E.164 when parseable, otherwise
// returns the trimmed input as-is.
func formatPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func trimAll(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func anySeq[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func countOf(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
