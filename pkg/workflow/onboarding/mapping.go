package onboarding

import (
	"fmt"
	"strings"
)

// mappingFieldQuery retrieves the name and address parts of large metadata.
const mappingFieldQuery = "name, street, address, firstname, surname, entity, postbox, city, country, district, id, reference"

const mappingSearchK = 8

const screenAddressesReference = `POST {endpoint}/rest/ComplianceScreening/screenAddresses

Request body:
- screeningParameters: clientIdentCode (mandatory), profileIdentCode (use DEFAULT when unknown),
  clientSystemId, suppressLogging (true for periodic rechecks), addressTypeVersion.
- addresses[]: one object per business partner or partner role.
  - addressType: entity | individual | meansOfTransport | unknown
  - name (mandatory, max 200), name1..name4 for company name lines, surname and prenames for persons
  - street, pc, city, district, countryISO, postbox, pcPostbox
  - ids[]: {idType, idValue} with idType TAX_NO, DUNS_NO, BIC, PASSPORT_NO, IMO_NO or DOMAIN_NAME
  - condition: {value, description} to scope good guy decisions
  - referenceId (technical id), referenceComment (human readable reference), info

Response: one entry per address with matchFound, wasGoodGuy, referenceId and referenceComment.`

const mappingExample = `{
  "screeningParameters": {
    "clientIdentCode": "APITEST",
    "profileIdentCode": "DEFAULT",
    "clientSystemId": "ERP",
    "suppressLogging": false
  },
  "addresses": [
    {
      "addressType": "entity",
      "name": "Abu Ahmed Group Inc.",
      "street": "Fuller street 5",
      "pc": "MK7 6AJ",
      "city": "Milton Keynes",
      "countryISO": "GB",
      "ids": [{"idType": "DOMAIN_NAME", "idValue": "abu-ahmed.example"}],
      "condition": {"value": "4711", "description": "customer: 4711"},
      "referenceId": "CUS_4711",
      "referenceComment": "Customer 4711"
    }
  ]
}`

// mappingSystemPrompt instructs the model how to produce a field mapping.
func mappingSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You map customer business data to the Compliance Screening API of a trade compliance platform.\n")
	b.WriteString("Analyze the customer's data structure and produce a precise field mapping that maximizes screening accuracy.\n\n")

	b.WriteString("<api_reference>\n")
	b.WriteString(screenAddressesReference)
	b.WriteString("\n</api_reference>\n\n")

	b.WriteString("<example_request>\n")
	b.WriteString(mappingExample)
	b.WriteString("\n</example_request>\n\n")

	b.WriteString("<rules>\n")
	b.WriteString("- Mandatory field: name. Screening relevant: name1-name4, addressType, street, pc, city, countryISO, postbox, pcPostbox, condition, ids. Recommended: referenceId, referenceComment, info.\n")
	b.WriteString("- Use addressType entity for companies and individual for persons, in every mapping table.\n")
	b.WriteString("- Build name from name1-name4 for companies and from surname and prenames for persons, and list the parts too.\n")
	b.WriteString("- Map e-mail addresses and websites to ids with idType DOMAIN_NAME.\n")
	b.WriteString("- Fill referenceId from the technical identifier and referenceComment from the business number of the object.\n")
	b.WriteString("- For several partner roles (ship-to, bill-to, sell-to) send one address object per role.\n")
	b.WriteString("- Derive condition from object type and number, for transactions from the first document of the flow.\n")
	b.WriteString("- Ignore data that does not help screening (items, dates, block states).\n")
	b.WriteString("- Ask which objects are mapped (master data or transactions) when it cannot be determined, and ask about unclear fields.\n")
	b.WriteString("</rules>\n\n")

	b.WriteString("<response_format>\n")
	b.WriteString("1. Mapping overview\n")
	b.WriteString("2. Screening parameters table: API field, mandatory, example\n")
	b.WriteString("3. Field mapping table: API field, customer field, mandatory, screening relevant, transformation, example\n")
	b.WriteString("4. A complete REST request with header and body\n")
	b.WriteString("5. Transformation logic for complex mappings\n")
	b.WriteString("6. Validation and data quality checks\n")
	b.WriteString("7. Implementation notes, including batch sizes of about 100 addresses\n")
	b.WriteString("8. Business events that should trigger a screening check\n")
	b.WriteString("</response_format>")
	return b.String()
}

type mappingRequest struct {
	Content       string
	FromExcerpts  bool
	Configuration []string
	SystemName    string
	Process       string
	Filename      string
	Language      string
}

func (r mappingRequest) prompt() string {
	var b strings.Builder
	b.WriteString("Analyze the following customer API metadata and create a detailed mapping to the screening API.\n\n")
	if r.FromExcerpts {
		b.WriteString("<customer_metadata_excerpts>\n")
	} else {
		b.WriteString("<customer_metadata>\n")
	}
	b.WriteString(r.Content)
	if r.FromExcerpts {
		b.WriteString("\n</customer_metadata_excerpts>\n\n")
	} else {
		b.WriteString("\n</customer_metadata>\n\n")
	}

	b.WriteString("<configuration>\n")
	for _, line := range r.Configuration {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("System name: %s\nProcess: %s\nMetadata file: %s\n", orNA(r.SystemName), orNA(r.Process), orNA(r.Filename)))
	b.WriteString("</configuration>\n\n")
	b.WriteString(r.Language)
	return b.String()
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}
