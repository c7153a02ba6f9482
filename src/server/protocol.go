package server

import (
	"strings"

	"tsetmc-pusher/src/helpers"
	"tsetmc-pusher/src/models"
)

// -----------------------------------------------------------------------------
// Client request grammar: <action>.<topic>.<isin1>,<isin2>,...
// For instance: 1.trade.IRO1FOLD0001,IRO1IKCO0001
// -----------------------------------------------------------------------------

const topicAll = "all"

// ParseRequest validates a whole frame. Any invalid part rejects the frame,
// so no partial subscription is ever applied.
func ParseRequest(message string) (models.MSubscriptionRequest, error) {
	var req models.MSubscriptionRequest

	parts := strings.Split(strings.TrimSpace(message), ".")
	if len(parts) != 3 {
		return req, helpers.NewProtocolError("message %q has unacceptable format", message)
	}

	action, err := parseAction(parts[0])
	if err != nil {
		return req, err
	}
	topics, err := parseTopic(parts[1])
	if err != nil {
		return req, err
	}

	seen := make(map[string]struct{})
	var isins []string
	for _, isin := range strings.Split(parts[2], ",") {
		if len(isin) != models.ISINLength {
			return req, helpers.NewProtocolError("isin %q is not acceptable", isin)
		}
		if _, dup := seen[isin]; dup {
			continue
		}
		seen[isin] = struct{}{}
		isins = append(isins, isin)
	}

	req.Action = action
	req.Topics = topics
	req.ISINs = isins
	return req, nil
}

// -----------------------------------------------------------------------------

func parseAction(s string) (models.Action, error) {
	switch s {
	case "1":
		return models.ActionSubscribe, nil
	case "0":
		return models.ActionUnsubscribe, nil
	}
	return 0, helpers.NewProtocolError("action %q is not acceptable", s)
}

func parseTopic(s string) ([]models.Topic, error) {
	if s == topicAll {
		return append([]models.Topic(nil), models.AllTopics...), nil
	}
	for _, t := range models.AllTopics {
		if t.String() == s {
			return []models.Topic{t}, nil
		}
	}
	return nil, helpers.NewProtocolError("topic %q is not acceptable", s)
}
