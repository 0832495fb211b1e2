package a2a

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/theapemachine/dice-agent/pkg/utils"
)

type AgentAuthentication struct {
	Schemes     []string `json:"schemes"`
	Credentials *string  `json:"credentials,omitempty"`
}

// AgentCapabilities describes the capabilities of an agent
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentProvider represents the provider or organization behind an agent
type AgentProvider struct {
	Organization string  `json:"organization"`
	URL          *string `json:"url,omitempty"`
}

// AgentSkill defines a specific skill or capability offered by an agent
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

/*
AgentCard is the self-description an agent publishes at
/.well-known/agent.json.
*/
type AgentCard struct {
	Name               string               `json:"name"`
	Description        *string              `json:"description,omitempty"`
	URL                string               `json:"url"`
	Provider           *AgentProvider       `json:"provider,omitempty"`
	Version            string               `json:"version"`
	DocumentationURL   *string              `json:"documentationUrl,omitempty"`
	Capabilities       AgentCapabilities    `json:"capabilities"`
	Authentication     *AgentAuthentication `json:"authentication,omitempty"`
	DefaultInputModes  []string             `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string             `json:"defaultOutputModes,omitempty"`
	Skills             []AgentSkill         `json:"skills"`
}

/*
NewAgentCardFromConfig builds the card from the agent section of the
configuration. Skills are listed by id under agent.skills and described
under skills.<id>.
*/
func NewAgentCardFromConfig(v *viper.Viper) *AgentCard {
	skillIDs := v.GetStringSlice("agent.skills")
	skills := make([]AgentSkill, 0, len(skillIDs))

	for _, id := range skillIDs {
		skills = append(skills, NewSkillFromConfig(v, id))
	}

	card := &AgentCard{
		Name:               v.GetString("agent.name"),
		Description:        utils.OptionalString(v.GetString("agent.description")),
		URL:                v.GetString("agent.url"),
		Version:            v.GetString("agent.version"),
		DocumentationURL:   utils.OptionalString(v.GetString("agent.documentationUrl")),
		DefaultInputModes:  v.GetStringSlice("agent.defaultInputModes"),
		DefaultOutputModes: v.GetStringSlice("agent.defaultOutputModes"),
		Skills:             skills,
	}

	if org := v.GetString("agent.provider.organization"); org != "" {
		card.Provider = &AgentProvider{
			Organization: org,
			URL:          utils.OptionalString(v.GetString("agent.provider.url")),
		}
	}

	log.Debug("agent card loaded", "name", card.Name, "skills", len(card.Skills))

	return card
}

func NewSkillFromConfig(v *viper.Viper, id string) AgentSkill {
	return AgentSkill{
		ID:          id,
		Name:        v.GetString(fmt.Sprintf("skills.%s.name", id)),
		Description: utils.OptionalString(v.GetString(fmt.Sprintf("skills.%s.description", id))),
		Tags:        v.GetStringSlice(fmt.Sprintf("skills.%s.tags", id)),
		Examples:    v.GetStringSlice(fmt.Sprintf("skills.%s.examples", id)),
		InputModes:  v.GetStringSlice(fmt.Sprintf("skills.%s.inputModes", id)),
		OutputModes: v.GetStringSlice(fmt.Sprintf("skills.%s.outputModes", id)),
	}
}

func (card *AgentCard) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render(card.Name) + " " + valueStyle.Render(card.Version) + "\n")

	if card.Description != nil {
		sb.WriteString(bullet + valueStyle.Render(*card.Description) + "\n")
	}

	sb.WriteString(bullet + labelStyle.Render("URL: ") + valueStyle.Render(card.URL) + "\n")

	for _, skill := range card.Skills {
		sb.WriteString(bullet + labelStyle.Render("Skill: ") + valueStyle.Render(skill.Name) + "\n")

		if len(skill.Examples) > 0 {
			sb.WriteString(bullet + indent + labelStyle.Render("Try: ") + valueStyle.Render(strings.Join(skill.Examples, " / ")) + "\n")
		}
	}

	return sb.String()
}
