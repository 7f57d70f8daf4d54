package onboarding

import (
	"fmt"
	"strings"

	"screening-onboarding-be/pkg/workflow"
)

// copyText is the user-facing wording of one locale.
type copyText struct {
	Greeting string

	EndpointsTitle    string
	EndpointsPrompt   string
	EndpointsRecorded string
	EndpointsSkipped  string

	ClientTitle     string
	ClientPrompt    string
	ClientRecorded  string
	ClientDefaulted string

	AuthTitle    string
	AuthPrompt   string
	AuthRecorded string

	GeneralTitle    string
	GeneralPrompt   string
	VariantsTitle   string
	VariantsPrompt  string
	ResponsesTitle  string
	ResponsesPrompt string

	Guide        string
	ConfigTitle  string
	Variants     string
	Responses    string
	MappingIntro string

	CheckpointPrompt string
	UploadPrompt     string
	UploadRecorded   string
	MappingRetry     string
	ExcerptsNote     string

	Yes, No, Missing, Unknown string
	LabelTest, LabelProd      string
	LabelClient, LabelAuth    string
}

var english = copyText{
	Greeting: "Hello! I am your **API Mapping Assistant**. I help you integrate the **TCM Screening API** " +
		"into your system step by step.",

	EndpointsTitle: "1) Service endpoints",
	EndpointsPrompt: "Please provide the **service endpoints** (at least one URL). See " +
		workflow.DocumentationHome + "/docs/setting-up-your-environment-1\n\n" +
		"Format:\n```\nTest: https://...\nProd: https://...\n```",
	EndpointsRecorded: "Thank you! Endpoints recorded:",
	EndpointsSkipped:  "Okay, we continue without endpoints for now. You can add them later.",

	ClientTitle: "2) Client name (clientIdentCode)",
	ClientPrompt: "Every customer has a separate client. Please share your **clientIdentCode** (e.g. APITEST).\n\n" +
		"Format: `clientIdentCode=APITEST` or `Client: APITEST`\n\n" +
		"If you don't have one yet, just say so and I will use a test default.",
	ClientRecorded: "Thank you! Client recorded: clientIdentCode=%s",
	ClientDefaulted: "No problem! I will use **" + DefaultClientIdentCode + "** as clientIdentCode for now. " +
		"It is a standard test client for integration testing.",

	AuthTitle: "3) Technical user for authentication",
	AuthPrompt: "Besides the client, the API needs a **technical WSM user** with password. " +
		"Is this user already set up? (Yes/No)\n\nIf not, we can continue without it for now.",
	AuthRecorded: "Technical user available: %s.",

	GeneralTitle:    "1. Initial integration guide for sanctions list screening",
	GeneralPrompt:   "Would you like to see the initial integration guide? (Yes or Skip)",
	VariantsTitle:   "2. Recommended options for API usage",
	VariantsPrompt:  "Would you like to see the three recommended integration variants? (Yes or Skip)",
	ResponsesTitle:  "3. Response scenarios",
	ResponsesPrompt: "Would you like to see the response scenarios explained? (Yes or Skip)",

	Guide:       guideEnglish,
	ConfigTitle: "Your configuration",

	Variants: `### Recommended options for API usage

#### 1. One-way transfer
Send business partners or transactions to ` + "`screenAddresses`" + ` once per object. The response reports a
match or no match. On a match the compliance officer is notified by email and resolves it in TCM; the object
is released or stopped manually in your system afterwards.

#### 2. Transfer with periodic rechecks
Like variant 1, but your system stores open matches and rechecks them (suggested every 60 minutes, with
` + "`suppressLogging=true`" + `) until the result becomes uncritical (` + "`matchFound=false, wasGoodGuy=true`" + `).
This allows automatic unblocking after a good guy decision.

#### 3. Direct access to match handling
An add-on to variant 1 or 2: a button in your system calls ` + "`screeningLogEntry`" + ` to open the match handling in
TCM through a temporary link.

**Our recommendation:** variant 1 for small volumes and simple workflows, variant 2 for high volumes and
automated unblocking, and variant 3 on top of either for the best user experience.`,

	Responses: "### Response scenarios\n\n" +
		"**Potential match** (block the object, handle the match in TCM):\n" +
		"```json\n{\"matchFound\": true, \"wasGoodGuy\": false, \"referenceId\": \"VEN_4714\"}\n```\n\n" +
		"**No match** (continue processing):\n" +
		"```json\n{\"matchFound\": false, \"wasGoodGuy\": false, \"referenceId\": \"VEN_4715\"}\n```\n\n" +
		"**Known good guy** (continue processing):\n" +
		"```json\n{\"matchFound\": false, \"wasGoodGuy\": true, \"referenceId\": \"VEN_4716\"}\n```",

	MappingIntro: `## API mapping

Now I can map your existing data structure to the screening API.

**What I need:**
1. **System name** (e.g. SAP, Salesforce, custom ERP) and the **process** to integrate (e.g. customer creation).
2. **API metadata** of your partner data: a JSON schema, an XML or CSV example, or an OpenAPI definition.`,

	CheckpointPrompt: "Press `continue` to proceed or ask your question.",
	UploadPrompt: "Please provide your system name, process and existing API metadata " +
		"(JSON schema, XML example, CSV structure or OpenAPI definition).",
	UploadRecorded: "Thank you! I received **%s** and will now create the mapping.",
	MappingRetry:   "Press `continue` to try the mapping again or ask a question.",
	ExcerptsNote: "The complete metadata was too large for direct analysis. " +
		"These excerpts were selected for their relevance to name and address fields:",

	Yes:         "Yes",
	No:          "No",
	Missing:     "<missing>",
	Unknown:     "<unknown>",
	LabelTest:   "Test endpoint",
	LabelProd:   "Prod endpoint",
	LabelClient: "Client (clientIdentCode)",
	LabelAuth:   "Technical user available",
}

var german = copyText{
	Greeting: "Hallo! Ich bin Ihr **API-Mapping-Assistent** und begleite Sie Schritt für Schritt bei der " +
		"Anbindung der **TCM Screening API**.",

	EndpointsTitle: "1) Service-Endpunkte",
	EndpointsPrompt: "Bitte nennen Sie die **Service-Endpunkte** (mindestens eine URL). Siehe " +
		workflow.DocumentationHome + "/docs/setting-up-your-environment-1\n\n" +
		"Format:\n```\nTest: https://...\nProd: https://...\n```",
	EndpointsRecorded: "Danke! Endpunkte erfasst:",
	EndpointsSkipped:  "In Ordnung, wir machen vorerst ohne Endpunkte weiter. Sie können sie später ergänzen.",

	ClientTitle: "2) Mandant (clientIdentCode)",
	ClientPrompt: "Für jeden Kunden gibt es einen eigenen Mandanten. Bitte nennen Sie Ihren **clientIdentCode** (z. B. APITEST).\n\n" +
		"Format: `clientIdentCode=APITEST` oder `Mandant: APITEST`\n\n" +
		"Falls Sie noch keinen haben, sagen Sie einfach Bescheid, dann verwende ich einen Testwert.",
	ClientRecorded: "Danke! Mandant erfasst: clientIdentCode=%s",
	ClientDefaulted: "Kein Problem! Ich verwende vorerst **" + DefaultClientIdentCode + "** als clientIdentCode. " +
		"Das ist ein Standard-Testmandant für Integrationstests.",

	AuthTitle: "3) Technischer Benutzer für die Authentifizierung",
	AuthPrompt: "Neben dem Mandanten braucht die API einen **technischen WSM-Benutzer** mit Passwort. " +
		"Ist dieser Benutzer bereits eingerichtet? (Ja/Nein)\n\nFalls nicht, können wir vorerst ohne ihn weitermachen.",
	AuthRecorded: "Technischer Benutzer vorhanden: %s.",

	GeneralTitle:    "1. Leitfaden für die Sanktionslistenprüfung",
	GeneralPrompt:   "Möchten Sie den Leitfaden für die erste Integration sehen? (Ja oder Überspringen)",
	VariantsTitle:   "2. Empfohlene Varianten der API-Nutzung",
	VariantsPrompt:  "Möchten Sie die drei empfohlenen Integrationsvarianten sehen? (Ja oder Überspringen)",
	ResponsesTitle:  "3. Antwortszenarien",
	ResponsesPrompt: "Möchten Sie die Antwortszenarien erklärt bekommen? (Ja oder Überspringen)",

	Guide:       guideGerman,
	ConfigTitle: "Ihre Konfiguration",

	Variants: `### Empfohlene Varianten der API-Nutzung

#### 1. Einmalige Übertragung
Geschäftspartner oder Bewegungsdaten werden einmal pro Objekt an ` + "`screenAddresses`" + ` gesendet. Die Antwort
meldet Treffer oder keinen Treffer. Bei einem Treffer wird die Compliance-Abteilung per E-Mail informiert und
bearbeitet ihn in TCM; das Objekt wird danach in Ihrem System manuell freigegeben oder gestoppt.

#### 2. Übertragung mit regelmäßiger Nachprüfung
Wie Variante 1, zusätzlich speichert Ihr System offene Treffer und prüft sie erneut (empfohlen alle 60 Minuten,
mit ` + "`suppressLogging=true`" + `), bis das Ergebnis unkritisch ist (` + "`matchFound=false, wasGoodGuy=true`" + `).
So ist eine automatische Entsperrung nach einer Good-Guy-Entscheidung möglich.

#### 3. Direkter Zugriff auf die Trefferbearbeitung
Ergänzung zu Variante 1 oder 2: Eine Schaltfläche in Ihrem System ruft ` + "`screeningLogEntry`" + ` auf und öffnet die
Trefferbearbeitung in TCM über einen temporären Link.

**Unsere Empfehlung:** Variante 1 für kleine Volumen und einfache Abläufe, Variante 2 für hohe Volumen und
automatische Entsperrung, Variante 3 zusätzlich für den besten Bedienkomfort.`,

	Responses: "### Antwortszenarien\n\n" +
		"**Möglicher Treffer** (Objekt sperren, Treffer in TCM bearbeiten):\n" +
		"```json\n{\"matchFound\": true, \"wasGoodGuy\": false, \"referenceId\": \"VEN_4714\"}\n```\n\n" +
		"**Kein Treffer** (weiterverarbeiten):\n" +
		"```json\n{\"matchFound\": false, \"wasGoodGuy\": false, \"referenceId\": \"VEN_4715\"}\n```\n\n" +
		"**Bekannter Good Guy** (weiterverarbeiten):\n" +
		"```json\n{\"matchFound\": false, \"wasGoodGuy\": true, \"referenceId\": \"VEN_4716\"}\n```",

	MappingIntro: `## API-Mapping

Jetzt kann ich Ihre bestehende Datenstruktur auf die Screening API abbilden.

**Was ich brauche:**
1. **Systemname** (z. B. SAP, Salesforce, eigenes ERP) und den zu integrierenden **Prozess** (z. B. Kundenanlage).
2. **API-Metadaten** Ihrer Partnerdaten: JSON-Schema, XML- oder CSV-Beispiel oder eine OpenAPI-Definition.`,

	CheckpointPrompt: "Drücken Sie `continue`, um fortzufahren, oder stellen Sie Ihre Frage.",
	UploadPrompt: "Bitte nennen Sie Systemname, Prozess und die vorhandenen API-Metadaten " +
		"(JSON-Schema, XML-Beispiel, CSV-Struktur oder OpenAPI-Definition).",
	UploadRecorded: "Danke! Ich habe **%s** erhalten und erstelle jetzt das Mapping.",
	MappingRetry:   "Drücken Sie `continue`, um das Mapping erneut zu versuchen, oder stellen Sie eine Frage.",
	ExcerptsNote: "Die vollständigen Metadaten waren für eine direkte Analyse zu groß. " +
		"Diese Auszüge wurden nach Relevanz für Namens- und Adressfelder ausgewählt:",

	Yes:         "Ja",
	No:          "Nein",
	Missing:     "<fehlt>",
	Unknown:     "<unbekannt>",
	LabelTest:   "Test-Endpunkt",
	LabelProd:   "Prod-Endpunkt",
	LabelClient: "Mandant (clientIdentCode)",
	LabelAuth:   "Technischer Benutzer vorhanden",
}

func textFor(locale string) copyText {
	if workflow.ParseLocale(locale) == workflow.German {
		return german
	}
	return english
}

func (t copyText) endpointsRecorded(e Endpoints) string {
	lines := []string{t.EndpointsRecorded}
	if e.Test != "" {
		lines = append(lines, fmt.Sprintf("- %s: %s", t.LabelTest, e.Test))
	}
	if e.Prod != "" {
		lines = append(lines, fmt.Sprintf("- %s: %s", t.LabelProd, e.Prod))
	}
	return strings.Join(lines, "\n")
}

func (t copyText) authValue(v string) string {
	switch v {
	case "true":
		return t.Yes
	case "false":
		return t.No
	}
	return t.Unknown
}

func (t copyText) orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return t.Missing
	}
	return v
}

// generalGuide is the integration guide with the collected values filled in.
func (t copyText) generalGuide(test, prod, client, auth string) string {
	return t.Guide + fmt.Sprintf("\n\n#### %s\n- **%s**: %s\n- **%s**: %s\n- **%s**: %s\n- **%s**: %s",
		t.ConfigTitle,
		t.LabelTest, t.orMissing(test),
		t.LabelProd, t.orMissing(prod),
		t.LabelClient, t.orMissing(client),
		t.LabelAuth, t.authValue(auth),
	)
}

const guideEnglish = `### Initial integration guide for sanctions list screening

#### 1. Format
- **JSON/REST** for all communication.

#### 2. Objects to screen
- **Master data**: single records or bulk (max. 100 entries).
- **Transactions**: screened on creation or modification.

#### 3. Fields
- **Mandatory**: name.
- **Screening relevant**: address, address type, ids, conditions.
- **Recommended**: a unique reference (referenceId, referenceComment).

#### 4. Triggers
- Creation or modification of master data and transactions.
- Periodic batch screening, recommended once per month.

#### 5. Response
- ` + "`matchFound`" + ` and ` + "`wasGoodGuy`" + ` decide between blocking and continuing.`

const guideGerman = `### Leitfaden für die Sanktionslistenprüfung

#### 1. Format
- **JSON/REST** für die Kommunikation.

#### 2. Zu prüfende Objekte
- **Stammdaten**: einzeln oder als Block (max. 100 Einträge).
- **Bewegungsdaten**: Prüfung bei Anlage oder Änderung.

#### 3. Felder
- **Pflicht**: Name.
- **Prüfrelevant**: Adresse, Adresstyp, IDs, Bedingungen.
- **Empfohlen**: eindeutige Referenz (referenceId, referenceComment).

#### 4. Auslöser
- Anlage oder Änderung von Stamm- und Bewegungsdaten.
- Periodische Massenprüfung, empfohlen einmal im Monat.

#### 5. Antwort
- ` + "`matchFound`" + ` und ` + "`wasGoodGuy`" + ` entscheiden über Sperren oder Weiterverarbeiten.`
