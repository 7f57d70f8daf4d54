package onboarding

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/response"
	"screening-onboarding-be/pkg/workflow"
)

const Name = "onboarding"

const (
	StepIntro            dialogue.StepID = "intro"
	StepEndpoints        dialogue.StepID = "endpoints"
	StepClientCode       dialogue.StepID = "client_code"
	StepAuthStatus       dialogue.StepID = "auth_status"
	StepClarify          dialogue.StepID = "clarify"
	StepOfferGeneral     dialogue.StepID = "offer_general"
	StepGeneralInfo      dialogue.StepID = "general_info"
	StepOfferVariants    dialogue.StepID = "offer_variants"
	StepExplainVariants  dialogue.StepID = "explain_variants"
	StepOfferResponses   dialogue.StepID = "offer_responses"
	StepExplainResponses dialogue.StepID = "explain_responses"
	StepMappingIntro     dialogue.StepID = "mapping_intro"
	StepCheckpoint       dialogue.StepID = "checkpoint"
	StepQA               dialogue.StepID = "qa"
	StepUploadMetadata   dialogue.StepID = "upload_metadata"
	StepProcessAndMap    dialogue.StepID = "process_and_map"
)

// Collected keys.
const (
	KeyTestEndpoint     = dialogue.FieldTestEndpoint
	KeyProdEndpoint     = dialogue.FieldProdEndpoint
	KeyEndpointsSkipped = "endpoints_skipped"
	KeyClientIdentCode  = dialogue.FieldClientIdentCode
	KeyAuthConfigured   = "auth_configured"
	KeyShowGeneral      = "show_general_info"
	KeyShowVariants     = "show_screening_variants"
	KeyShowResponses    = "show_responses"
	KeySystemName       = dialogue.FieldSystemName
	KeyProcess          = dialogue.FieldProcess
	KeyAPIFile          = "api_file"
)

const (
	qaQueryPrefix = "Question about Screening API: "
	qaK           = 5
	historyWindow = 10
)

var clientCodeRE = regexp.MustCompile(`^[A-Za-z0-9_\-]{2,40}$`)

const qaSystem = "You are an expert for a trade compliance screening API. " +
	"Answer questions about the screening API precisely and helpfully. " +
	"Always use the documentation excerpts and configuration data provided, " +
	"and base the answer on the documentation rather than general knowledge."

type flow struct {
	deps      workflow.Deps
	gen       *response.Generator
	clarifier *response.Clarifier
}

// Definition builds the onboarding workflow. One definition serves every
// locale; copy is chosen per thread from State.Locale.
func Definition(deps workflow.Deps) dialogue.Definition {
	gen := deps.Generator()
	f := &flow{deps: deps, gen: gen, clarifier: response.NewClarifier(gen)}

	return dialogue.Definition{
		Name:  Name,
		Start: StepIntro,
		Steps: []dialogue.Step{
			{ID: StepIntro, Kind: dialogue.KindEager, Handler: f.intro},
			{ID: StepEndpoints, Kind: dialogue.KindSuspending, Handler: f.field(StepEndpoints, endpointsRequest, f.endpoints)},
			{ID: StepClientCode, Kind: dialogue.KindSuspending, Handler: f.field(StepClientCode, clientRequest, f.clientCode)},
			{ID: StepAuthStatus, Kind: dialogue.KindSuspending, Handler: f.field(StepAuthStatus, authRequest, f.authStatus)},
			{ID: StepClarify, Kind: dialogue.KindEager, Handler: f.clarify},
			{ID: StepOfferGeneral, Kind: dialogue.KindSuspending, Handler: f.field(StepOfferGeneral, generalOffer, offer(KeyShowGeneral))},
			{ID: StepGeneralInfo, Kind: dialogue.KindEager, Handler: f.generalInfo},
			{ID: StepOfferVariants, Kind: dialogue.KindSuspending, Handler: f.field(StepOfferVariants, variantsOffer, offer(KeyShowVariants))},
			{ID: StepExplainVariants, Kind: dialogue.KindEager, Handler: say(func(t copyText) string { return t.Variants })},
			{ID: StepOfferResponses, Kind: dialogue.KindSuspending, Handler: f.field(StepOfferResponses, responsesOffer, offer(KeyShowResponses))},
			{ID: StepExplainResponses, Kind: dialogue.KindEager, Handler: say(func(t copyText) string { return t.Responses })},
			{ID: StepMappingIntro, Kind: dialogue.KindEager, Handler: say(func(t copyText) string { return t.MappingIntro })},
			{ID: StepCheckpoint, Kind: dialogue.KindSuspending, Handler: f.checkpoint},
			{ID: StepQA, Kind: dialogue.KindSuspending, Handler: f.qa},
			{ID: StepUploadMetadata, Kind: dialogue.KindSuspending, Handler: f.uploadMetadata},
			{ID: StepProcessAndMap, Kind: dialogue.KindEager, Handler: f.processAndMap},
		},
		Route: Route,
	}
}

type requestFor func(t copyText) dialogue.SuspendRequest

func endpointsRequest(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendEndpoints, Title: t.EndpointsTitle, Prompt: t.EndpointsPrompt}
}

func clientRequest(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendClientCode, Title: t.ClientTitle, Prompt: t.ClientPrompt}
}

func authRequest(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendAuthStatus, Title: t.AuthTitle, Prompt: t.AuthPrompt}
}

func generalOffer(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendOffer, Title: t.GeneralTitle, Prompt: t.GeneralPrompt}
}

func variantsOffer(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendOffer, Title: t.VariantsTitle, Prompt: t.VariantsPrompt}
}

func responsesOffer(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendOffer, Title: t.ResponsesTitle, Prompt: t.ResponsesPrompt}
}

func checkpointRequest(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendQuestionOrContinue, Prompt: t.CheckpointPrompt}
}

func uploadRequest(t copyText) dialogue.SuspendRequest {
	return dialogue.SuspendRequest{Kind: dialogue.SuspendAPIMetadata, Prompt: t.UploadPrompt}
}

// requestOf returns the suspend request a step issues, used to remind the
// user of the question during clarification.
func requestOf(step dialogue.StepID) (requestFor, bool) {
	switch step {
	case StepEndpoints:
		return endpointsRequest, true
	case StepClientCode:
		return clientRequest, true
	case StepAuthStatus:
		return authRequest, true
	case StepOfferGeneral:
		return generalOffer, true
	case StepOfferVariants:
		return variantsOffer, true
	case StepOfferResponses:
		return responsesOffer, true
	}
	return nil, false
}

type resumeHandler func(ctx context.Context, s dialogue.State, t copyText, r *dialogue.Resume) (dialogue.Delta, error)

// field wraps a structured-field step: it suspends on entry, diverts
// questions into the QA side-channel and hands everything else to handle.
func (f *flow) field(id dialogue.StepID, req requestFor, handle resumeHandler) dialogue.Handler {
	return func(ctx context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
		t := textFor(s.Locale)
		var d dialogue.Delta
		if turn.Resume == nil {
			return d.Suspend(req(t)), nil
		}
		if turn.Resume.Alt == dialogue.AltQuestion {
			if turn.Resume.Value == "" {
				return d.Suspend(req(t)), nil
			}
			return d.Ask(turn.Resume.Value).Target(id), nil
		}
		return handle(ctx, s, t, turn.Resume)
	}
}

func say(text func(t copyText) string) dialogue.Handler {
	return func(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
		return dialogue.Delta{}.Say(text(textFor(s.Locale))), nil
	}
}

func (f *flow) intro(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	return dialogue.Delta{}.Say(textFor(s.Locale).Greeting), nil
}

func (f *flow) endpoints(_ context.Context, s dialogue.State, t copyText, r *dialogue.Resume) (dialogue.Delta, error) {
	var d dialogue.Delta
	var e Endpoints

	switch r.Alt {
	case dialogue.AltResponse:
		if r.Value == dialogue.ResponseYes {
			return d.Reject(StepEndpoints, r.Value, "no URL was given"), nil
		}
		return d.Set(KeyEndpointsSkipped, "true").Say(t.EndpointsSkipped), nil
	case dialogue.AltText:
		hasPrior := s.Has(KeyTestEndpoint) || s.Has(KeyProdEndpoint)
		e = ParseEndpoints(r.Value, hasPrior)
		if e.Empty() {
			return d.Reject(StepEndpoints, r.Value, "no labelled URL found"), nil
		}
	case dialogue.AltFields:
		e = Endpoints{Test: r.Field(KeyTestEndpoint), Prod: r.Field(KeyProdEndpoint)}
		for _, u := range []string{e.Test, e.Prod} {
			if u != "" && urlRE.FindString(u) != u {
				return d.Reject(StepEndpoints, u, "not a URL"), nil
			}
		}
		if e.Empty() {
			return d.Reject(StepEndpoints, "", "no URL was given"), nil
		}
	}

	return d.Set(KeyTestEndpoint, e.Test).
		Set(KeyProdEndpoint, e.Prod).
		Say(t.endpointsRecorded(e)), nil
}

func (f *flow) clientCode(ctx context.Context, _ dialogue.State, t copyText, r *dialogue.Resume) (dialogue.Delta, error) {
	var d dialogue.Delta
	defaulted := d.Set(KeyClientIdentCode, DefaultClientIdentCode).Say(t.ClientDefaulted)

	var code string
	switch r.Alt {
	case dialogue.AltResponse:
		if r.Value == dialogue.ResponseYes {
			return d.Reject(StepClientCode, r.Value, "no code was given"), nil
		}
		return defaulted, nil
	case dialogue.AltFields:
		code = r.Field(KeyClientIdentCode)
	case dialogue.AltText:
		if SaysNoClientCode(r.Value) {
			return defaulted, nil
		}
		code = ParseClientIdent(r.Value)
		if code == "" {
			switch label := f.gen.Classify(ctx, clientClassifier, r.Value); label {
			case "no_code":
				return defaulted, nil
			case "", "unclear":
			default:
				code = label
			}
		}
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if !clientCodeRE.MatchString(code) {
		return d.Reject(StepClientCode, r.Value, "no client code found"), nil
	}
	return d.Set(KeyClientIdentCode, code).Say(fmt.Sprintf(t.ClientRecorded, code)), nil
}

const clientClassifier = "You read a user's reply to the question for their clientIdentCode, " +
	"a customer identifier of a screening API. Reply with exactly one token: " +
	"no_code if the user says they have no code, unclear if you cannot tell, " +
	"or the code itself if the reply contains one."

const yesNoClassifier = "You read a user's reply to the question whether their technical API user " +
	"is already set up. Reply with exactly one word: yes, no or unclear."

func (f *flow) authStatus(ctx context.Context, _ dialogue.State, t copyText, r *dialogue.Resume) (dialogue.Delta, error) {
	var d dialogue.Delta
	var configured string

	switch r.Alt {
	case dialogue.AltResponse:
		configured = fmt.Sprint(r.Value == dialogue.ResponseYes)
	case dialogue.AltFields:
		configured = r.Field(dialogue.FieldConfigured)
	case dialogue.AltText:
		switch ParseYesNo(r.Value) {
		case Yes:
			configured = "true"
		case No:
			configured = "false"
		default:
			switch f.gen.Classify(ctx, yesNoClassifier, r.Value, "yes", "no", "unclear") {
			case "yes":
				configured = "true"
			case "no":
				configured = "false"
			default:
				return d.Reject(StepAuthStatus, r.Value, "neither yes nor no"), nil
			}
		}
	}

	return d.Set(KeyAuthConfigured, configured).
		Say(fmt.Sprintf(t.AuthRecorded, t.authValue(configured))), nil
}

// offer records whether the user wants to see the section behind key.
func offer(key string) resumeHandler {
	return func(_ context.Context, _ dialogue.State, _ copyText, r *dialogue.Resume) (dialogue.Delta, error) {
		show := dialogue.ResponseNo
		if r.Value == dialogue.ResponseYes {
			show = dialogue.ResponseYes
		}
		return dialogue.Delta{}.Set(key, show), nil
	}
}

func (f *flow) clarify(ctx context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	rej := s.Control.Rejected
	var d dialogue.Delta
	if rej == nil {
		return d, nil
	}

	question := ""
	if req, ok := requestOf(rej.Step); ok {
		question = req(t).Prompt
	}
	answer := rej.Input
	if answer == "" {
		answer = rej.Reason
	}

	text := f.clarifier.Clarify(ctx, string(workflow.ParseLocale(s.Locale)), question, answer, question)
	return d.Say(text).ClearRejection().Target(rej.Step), nil
}

func (f *flow) generalInfo(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	guide := t.generalGuide(s.Field(KeyTestEndpoint), s.Field(KeyProdEndpoint), s.Field(KeyClientIdentCode), s.Field(KeyAuthConfigured))
	return dialogue.Delta{}.Say(guide), nil
}

func (f *flow) checkpoint(_ context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	var d dialogue.Delta
	if turn.Resume == nil {
		target := StepUploadMetadata
		if s.Has(KeyAPIFile) {
			target = StepProcessAndMap
		}
		return d.Target(target).Suspend(checkpointRequest(t)), nil
	}
	return questionOrContinue(d, t, turn.Resume), nil
}

// qa answers the pending question and waits for the next question or a
// continue.
func (f *flow) qa(ctx context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	var d dialogue.Delta
	if turn.Resume != nil {
		return questionOrContinue(d, t, turn.Resume), nil
	}

	question := strings.TrimSpace(s.Control.PendingQuestion)
	if question == "" {
		return d.Suspend(checkpointRequest(t)), nil
	}

	loc := workflow.ParseLocale(s.Locale)
	answer, _ := f.deps.Answer(ctx, loc, workflow.Question{
		Text:          question,
		QueryPrefix:   qaQueryPrefix,
		K:             qaK,
		System:        qaSystem,
		Configuration: configuration(s, t),
	})
	return d.Say(answer).Answered().Suspend(checkpointRequest(t)), nil
}

func questionOrContinue(d dialogue.Delta, t copyText, r *dialogue.Resume) dialogue.Delta {
	if r.Alt == dialogue.AltContinue {
		return d.Continue()
	}
	if r.Value == "" {
		return d.Suspend(checkpointRequest(t))
	}
	return d.Ask(r.Value)
}

func configuration(s dialogue.State, t copyText) []string {
	var lines []string
	if v := s.Field(KeyTestEndpoint); v != "" {
		lines = append(lines, t.LabelTest+": "+v)
	}
	if v := s.Field(KeyProdEndpoint); v != "" {
		lines = append(lines, t.LabelProd+": "+v)
	}
	if v := s.Field(KeyClientIdentCode); v != "" {
		lines = append(lines, t.LabelClient+": "+v)
	}
	if v := s.Field(KeyAuthConfigured); v != "" {
		lines = append(lines, t.LabelAuth+": "+t.authValue(v))
	}
	return lines
}

func (f *flow) uploadMetadata(ctx context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	var d dialogue.Delta
	if turn.Resume == nil {
		return d.Suspend(uploadRequest(t)), nil
	}

	r := turn.Resume
	name := r.Field(dialogue.FieldFilename)
	content := r.Field(dialogue.FieldFileContent)
	if err := filestore.ValidateName(name); err != nil {
		return d, dialogue.NewPayloadError(dialogue.SuspendAPIMetadata, err.Error())
	}
	if strings.TrimSpace(content) == "" {
		return d, dialogue.NewPayloadError(dialogue.SuspendAPIMetadata, "metadata content is empty")
	}
	if err := f.deps.Files.Write(ctx, s.ThreadID, name, []byte(content)); err != nil {
		return d, fmt.Errorf("store api metadata: %w", err)
	}

	return d.Set(KeySystemName, r.Field(dialogue.FieldSystemName)).
		Set(KeyProcess, r.Field(dialogue.FieldProcess)).
		Set(KeyAPIFile, name).
		Say(fmt.Sprintf(t.UploadRecorded, name)), nil
}

// processAndMap rebuilds the thread's session corpus from its uploads and
// asks the model for the field mapping. Oversized metadata is replaced by
// the most relevant excerpts.
func (f *flow) processAndMap(ctx context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	loc := workflow.ParseLocale(s.Locale)
	var d dialogue.Delta

	name := s.Field(KeyAPIFile)
	raw, err := f.deps.Files.Read(ctx, s.ThreadID, name)
	if err != nil {
		return d, fmt.Errorf("read api metadata: %w", err)
	}

	corpus := workflow.SessionCorpus(s.ThreadID)
	if dir, err := f.deps.Files.Dir(s.ThreadID); err == nil {
		report, err := f.deps.Index.RebuildFresh(ctx, corpus, dir, true)
		if err != nil {
			f.deps.Logger.Warn("ONBOARDING", "Session corpus rebuild failed", map[string]interface{}{
				"corpus": corpus,
				"error":  err.Error(),
			})
		} else {
			f.deps.Logger.Info("ONBOARDING", "Session corpus rebuilt", map[string]interface{}{
				"corpus":    corpus,
				"documents": report.Documents,
				"chunks":    report.Chunks,
			})
		}
	}

	req := mappingRequest{
		Content:       string(raw),
		Configuration: configuration(s, t),
		SystemName:    s.Field(KeySystemName),
		Process:       s.Field(KeyProcess),
		Filename:      name,
		Language:      loc.Language(),
	}
	if estimate := len(raw) / 4; estimate > f.deps.TokenLimit() {
		excerpts, err := f.deps.Search.Search(ctx, corpus, mappingFieldQuery, mappingSearchK)
		if err != nil {
			f.deps.Logger.Warn("ONBOARDING", "Session corpus search failed", map[string]interface{}{"error": err.Error()})
		}
		req.Content = t.ExcerptsNote + "\n\n" + strings.Join(excerpts, "\n\n")
		req.FromExcerpts = true
		f.deps.Logger.Info("ONBOARDING", "Metadata too large, using excerpts", map[string]interface{}{
			"estimated_tokens": estimate,
			"excerpts":         len(excerpts),
		})
	}

	history := []llm.Message{{Role: llm.RoleSystem, Content: mappingSystemPrompt()}}
	history = append(history, workflow.History(s.Transcript, historyWindow)...)
	history = append(history, llm.Message{Role: llm.RoleUser, Content: req.prompt()})

	mapping, ok := f.gen.Generate(ctx, string(loc), history)
	if !ok {
		return d.Say(mapping).Say(t.MappingRetry), nil
	}
	return d.Say(mapping).Complete(), nil
}
