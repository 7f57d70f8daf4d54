package onboarding

import (
	"fmt"

	"screening-onboarding-be/pkg/dialogue"
)

// Steps lists every step id of the workflow.
func Steps() []dialogue.StepID {
	return []dialogue.StepID{
		StepIntro, StepEndpoints, StepClientCode, StepAuthStatus, StepClarify,
		StepOfferGeneral, StepGeneralInfo, StepOfferVariants, StepExplainVariants,
		StepOfferResponses, StepExplainResponses, StepMappingIntro, StepCheckpoint,
		StepQA, StepUploadMetadata, StepProcessAndMap,
	}
}

// Route picks the step that follows from.
func Route(from dialogue.StepID, s dialogue.State) (dialogue.Transition, error) {
	switch from {
	case StepIntro:
		return dialogue.Go(StepEndpoints), nil

	case StepEndpoints:
		return routeField(s, StepEndpoints, StepClientCode,
			s.Has(KeyTestEndpoint) || s.Has(KeyProdEndpoint) || s.Has(KeyEndpointsSkipped)), nil
	case StepClientCode:
		return routeField(s, StepClientCode, StepAuthStatus, s.Has(KeyClientIdentCode)), nil
	case StepAuthStatus:
		return routeField(s, StepAuthStatus, StepOfferGeneral, s.Has(KeyAuthConfigured)), nil

	case StepClarify:
		return dialogue.ResumeTo(s, StepEndpoints), nil

	case StepOfferGeneral:
		return routeOffer(s, StepOfferGeneral, KeyShowGeneral, StepGeneralInfo, StepOfferVariants), nil
	case StepGeneralInfo:
		return dialogue.Go(StepOfferVariants), nil
	case StepOfferVariants:
		return routeOffer(s, StepOfferVariants, KeyShowVariants, StepExplainVariants, StepOfferResponses), nil
	case StepExplainVariants:
		return dialogue.Go(StepOfferResponses), nil
	case StepOfferResponses:
		return routeOffer(s, StepOfferResponses, KeyShowResponses, StepExplainResponses, StepMappingIntro), nil
	case StepExplainResponses:
		return dialogue.Go(StepMappingIntro), nil
	case StepMappingIntro:
		return dialogue.Go(StepCheckpoint), nil

	case StepCheckpoint, StepQA:
		switch s.Control.Decision {
		case dialogue.DecisionAsk:
			return dialogue.Go(StepQA), nil
		case dialogue.DecisionContinue:
			return dialogue.ResumeTo(s, StepUploadMetadata), nil
		}
		return dialogue.Go(from), nil

	case StepUploadMetadata:
		return dialogue.Go(StepProcessAndMap), nil
	case StepProcessAndMap:
		if s.Control.Completed {
			return dialogue.Go(dialogue.End), nil
		}
		return dialogue.Go(StepCheckpoint), nil
	}
	return dialogue.Transition{}, fmt.Errorf("%w: %s", dialogue.ErrUnknownStep, from)
}

// routeField sends questions to QA, unusable input to clarify, and moves
// on once done.
func routeField(s dialogue.State, self, next dialogue.StepID, done bool) dialogue.Transition {
	switch {
	case s.Control.Decision == dialogue.DecisionAsk:
		return dialogue.Go(StepQA)
	case s.Control.Rejected != nil:
		return dialogue.Go(StepClarify)
	case done:
		return dialogue.Go(next)
	}
	return dialogue.Go(self)
}

func routeOffer(s dialogue.State, self dialogue.StepID, key string, show, skip dialogue.StepID) dialogue.Transition {
	if s.Control.Decision == dialogue.DecisionAsk {
		return dialogue.Go(StepQA)
	}
	switch s.Field(key) {
	case dialogue.ResponseYes:
		return dialogue.Go(show)
	case dialogue.ResponseNo:
		return dialogue.Go(skip)
	}
	return dialogue.Go(self)
}
