package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleFrench  Locale = "fr"
)

func ParseLocale(raw string) Locale {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(normalized, "-_."); i > 0 {
		normalized = normalized[:i]
	}
	if Locale(normalized) == LocaleFrench {
		return LocaleFrench
	}
	return LocaleEnglish
}

var failureMessages = map[Locale]map[FailureReason]string{
	LocaleEnglish: {
		ReasonUserRejected:        "You declined the request in your wallet.",
		ReasonInsufficientFunding: "Your token balance is too low for this operation.",
		ReasonInsufficientFee:     "You do not have enough funds to pay the network fee.",
		ReasonWrongNetwork:        "Your wallet is connected to the wrong network. Switch networks and try again.",
		ReasonAuthorizationFailed: "The spending authorization could not be completed.",
		ReasonNotConnected:        "Connect your wallet first.",
		ReasonNotEligible:         "This operation is not available in your country.",
		ReasonInvalidRequest:      "This transaction is incomplete. Check the amount and arguments, then try again.",
	},
	LocaleFrench: {
		ReasonUserRejected:        "Vous avez refusé la demande dans votre portefeuille.",
		ReasonInsufficientFunding: "Votre solde de jetons est insuffisant pour cette opération.",
		ReasonInsufficientFee:     "Vous n'avez pas assez de fonds pour payer les frais de réseau.",
		ReasonWrongNetwork:        "Votre portefeuille est connecté au mauvais réseau. Changez de réseau puis réessayez.",
		ReasonAuthorizationFailed: "L'autorisation de dépense n'a pas pu aboutir.",
		ReasonNotConnected:        "Connectez d'abord votre portefeuille.",
		ReasonNotEligible:         "Cette opération n'est pas disponible dans votre pays.",
		ReasonInvalidRequest:      "Cette transaction est incomplète. Vérifiez le montant et les paramètres, puis réessayez.",
	},
}

// Message returns the fixed user-facing text for a reason. Unclassified
// failures have no fixed text; callers forward the raw message instead.
func Message(locale Locale, reason FailureReason) string {
	catalog, ok := failureMessages[locale]
	if !ok {
		catalog = failureMessages[LocaleEnglish]
	}
	if msg, ok := catalog[reason]; ok {
		return msg
	}
	return ""
}

// ConnectErrorMessage maps a session error to an actionable message for the
// requested agent kind.
func ConnectErrorMessage(locale Locale, kind AgentKind, err error) string {
	name := kind.DisplayName()
	french := locale == LocaleFrench

	switch {
	case errors.Is(err, ErrAgentNotFound):
		if french {
			return fmt.Sprintf("%s n'est pas installé. Installez %s pour continuer.", name, name)
		}
		return fmt.Sprintf("%s is not installed. Install %s to continue.", name, name)
	case errors.Is(err, ErrAgentLocked):
		if french {
			return fmt.Sprintf("Déverrouillez %s puis réessayez.", name)
		}
		return fmt.Sprintf("Unlock %s and try again.", name)
	case errors.Is(err, ErrUserRejected):
		return Message(locale, ReasonUserRejected)
	case errors.Is(err, ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		if french {
			return fmt.Sprintf("%s n'a pas répondu. Ouvrez %s et réessayez.", name, name)
		}
		return fmt.Sprintf("%s did not respond. Open %s and try again.", name, name)
	case errors.Is(err, ErrAlreadyPending):
		if french {
			return fmt.Sprintf("Une demande de connexion est déjà ouverte dans %s.", name)
		}
		return fmt.Sprintf("A connection request is already open in %s.", name)
	case errors.Is(err, ErrNetworkAddFailed):
		if french {
			return fmt.Sprintf("%s n'a pas pu ajouter le réseau requis.", name)
		}
		return fmt.Sprintf("%s could not add the required network.", name)
	case errors.Is(err, ErrWrongNetwork):
		return Message(locale, ReasonWrongNetwork)
	case errors.Is(err, ErrConnectionSuperseded):
		if french {
			return fmt.Sprintf("La demande de connexion à %s a été remplacée ou annulée. Réessayez.", name)
		}
		return fmt.Sprintf("The connection request to %s was replaced or cancelled. Try again.", name)
	case errors.Is(err, ErrCapabilityMissing):
		if french {
			return fmt.Sprintf("%s ne prend pas en charge cette demande.", name)
		}
		return fmt.Sprintf("%s does not support this request.", name)
	case errors.Is(err, ErrNotConnected):
		return Message(locale, ReasonNotConnected)
	case errors.Is(err, context.Canceled):
		if french {
			return "La demande a été annulée."
		}
		return "The request was cancelled."
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
