package registry

import "mercator-hq/ganymede/pkg/secrets"

// Partial is a provider config fragment: nil fields mean "inherit from the
// existing config or the shipped defaults". Configure merges a Partial
// over the current state: scalars replace wholesale, CustomHeaders merge
// key-wise, and the nested Auth/Parse/Chat structs merge field-wise.
type Partial struct {
	// BaseURL derives ChatAPIURL and ModelsAPIURL by provider family for
	// whichever of those the merge leaves unset
	BaseURL *string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	ChatAPIURL   *string `yaml:"chat_api_url,omitempty" json:"chat_api_url,omitempty"`
	ModelsAPIURL *string `yaml:"models_api_url,omitempty" json:"models_api_url,omitempty"`

	// EnvVarNames replaces the whole list when non-nil; order matters
	EnvVarNames []string `yaml:"env_var_names,omitempty" json:"env_var_names,omitempty"`

	DefaultModel *string `yaml:"default_model,omitempty" json:"default_model,omitempty"`

	// APIKey is stripped into the secret store during Configure and never
	// lands on the stored config
	APIKey secrets.Secret `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// CustomHeaders merge over existing headers; an empty string value
	// removes that header
	CustomHeaders map[string]string `yaml:"custom_headers,omitempty" json:"custom_headers,omitempty"`

	Auth  *PartialAuth  `yaml:"auth,omitempty" json:"auth,omitempty"`
	Parse *PartialParse `yaml:"parse,omitempty" json:"parse,omitempty"`
	Chat  *PartialChat  `yaml:"chat,omitempty" json:"chat,omitempty"`

	Active *bool `yaml:"active,omitempty" json:"active,omitempty"`
}

// PartialAuth mirrors AuthConfig with inherit-when-nil fields.
type PartialAuth struct {
	Type         *string `yaml:"type,omitempty" json:"type,omitempty"`
	HeaderName   *string `yaml:"header_name,omitempty" json:"header_name,omitempty"`
	HeaderFormat *string `yaml:"header_format,omitempty" json:"header_format,omitempty"`
	QueryParam   *string `yaml:"query_param,omitempty" json:"query_param,omitempty"`
	Optional     *bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// PartialParse mirrors ParseConfig with inherit-when-nil fields.
type PartialParse struct {
	ModelsPath         *string `yaml:"models_path,omitempty" json:"models_path,omitempty"`
	IDField            *string `yaml:"id_field,omitempty" json:"id_field,omitempty"`
	NameField          *string `yaml:"name_field,omitempty" json:"name_field,omitempty"`
	DisplayNameField   *string `yaml:"display_name_field,omitempty" json:"display_name_field,omitempty"`
	ContextWindowField *string `yaml:"context_window_field,omitempty" json:"context_window_field,omitempty"`
	IDPrefix           *string `yaml:"id_prefix,omitempty" json:"id_prefix,omitempty"`
}

// PartialChat mirrors ChatConfig with inherit-when-nil fields.
type PartialChat struct {
	MessageFormat     *string `yaml:"message_format,omitempty" json:"message_format,omitempty"`
	ResponseParsePath *string `yaml:"response_parse_path,omitempty" json:"response_parse_path,omitempty"`
	ToolSchemaType    *string `yaml:"tool_schema_type,omitempty" json:"tool_schema_type,omitempty"`
}

// merge applies p over base in place. base is the caller's private copy.
func (p *Partial) merge(base *ProviderConfig) {
	if p == nil {
		return
	}

	setString(&base.BaseURL, p.BaseURL)
	setString(&base.ChatAPIURL, p.ChatAPIURL)
	setString(&base.ModelsAPIURL, p.ModelsAPIURL)
	setString(&base.DefaultModel, p.DefaultModel)
	if p.EnvVarNames != nil {
		base.EnvVarNames = append([]string(nil), p.EnvVarNames...)
	}
	if p.Active != nil {
		base.Active = *p.Active
	}

	if p.CustomHeaders != nil {
		if base.CustomHeaders == nil {
			base.CustomHeaders = make(map[string]string, len(p.CustomHeaders))
		}
		for k, v := range p.CustomHeaders {
			if v == "" {
				delete(base.CustomHeaders, k)
				continue
			}
			base.CustomHeaders[k] = v
		}
	}

	if p.Auth != nil {
		setString(&base.Auth.Type, p.Auth.Type)
		setString(&base.Auth.HeaderName, p.Auth.HeaderName)
		setString(&base.Auth.HeaderFormat, p.Auth.HeaderFormat)
		setString(&base.Auth.QueryParam, p.Auth.QueryParam)
		if p.Auth.Optional != nil {
			base.Auth.Optional = *p.Auth.Optional
		}
	}

	if p.Parse != nil {
		setString(&base.Parse.ModelsPath, p.Parse.ModelsPath)
		setString(&base.Parse.IDField, p.Parse.IDField)
		setString(&base.Parse.NameField, p.Parse.NameField)
		setString(&base.Parse.DisplayNameField, p.Parse.DisplayNameField)
		setString(&base.Parse.ContextWindowField, p.Parse.ContextWindowField)
		setString(&base.Parse.IDPrefix, p.Parse.IDPrefix)
	}

	if p.Chat != nil {
		setString(&base.Chat.MessageFormat, p.Chat.MessageFormat)
		setString(&base.Chat.ResponseParsePath, p.Chat.ResponseParsePath)
		setString(&base.Chat.ToolSchemaType, p.Chat.ToolSchemaType)
	}

	// BaseURL convenience: derive endpoint URLs the merge left unset.
	deriveURLs(base)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// String returns a pointer to s, for building Partial literals.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building Partial literals.
func Bool(b bool) *bool { return &b }
