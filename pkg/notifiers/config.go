package notifiers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink types understood by DefaultBuilders.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

const (
	webhookDefaultMethod  = "POST"
	webhookDefaultTimeout = 5
)

// NotifierConfig declares one outcome sink. Exactly one of the typed sections is
// read, selected by Type.
type NotifierConfig struct {
	ID      string        `json:"id" yaml:"id"`
	Type    string        `json:"type" yaml:"type"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPConfig   `json:"http" yaml:"http"`
	SQS     *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials pins static keys and an endpoint override (localstack and
// similar). Left empty, the default AWS credential chain applies.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// HTTPConfig posts events to a webhook.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SQSConfig sends events to a queue.
type SQSConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// SNSConfig publishes events to a topic.
type SNSConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// PubSubConfig publishes events to a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// IsEnabled reports whether the sink is switched on; unset means on.
func (c NotifierConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Catalog is the immutable set of sinks declared in a notifiers file.
type Catalog struct {
	entries []NotifierConfig
	byID    map[string]int
}

// LoadCatalog reads a notifiers file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("notifiers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notifiers file: %w", err)
	}

	var doc struct {
		Notifiers []NotifierConfig `json:"notifiers" yaml:"notifiers"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &doc)
	} else {
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if len(doc.Notifiers) == 0 {
		return nil, fmt.Errorf("%s declares no notifiers", filepath.Base(path))
	}

	cat := &Catalog{byID: make(map[string]int, len(doc.Notifiers))}
	for i, entry := range doc.Notifiers {
		entry.normalize()
		if err := entry.check(); err != nil {
			return nil, fmt.Errorf("notifiers[%d]: %w", i, err)
		}
		if _, dup := cat.byID[entry.ID]; dup {
			return nil, fmt.Errorf("notifiers[%d]: id %q declared twice", i, entry.ID)
		}
		cat.byID[entry.ID] = len(cat.entries)
		cat.entries = append(cat.entries, entry)
	}
	return cat, nil
}

// Lookup finds a sink by id.
func (c *Catalog) Lookup(id string) (NotifierConfig, bool) {
	if c == nil {
		return NotifierConfig{}, false
	}
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return NotifierConfig{}, false
	}
	return c.entries[i], true
}

// Entries returns every declared sink in file order.
func (c *Catalog) Entries() []NotifierConfig {
	if c == nil {
		return nil
	}
	return append([]NotifierConfig(nil), c.entries...)
}

// Active returns the enabled sinks in file order.
func (c *Catalog) Active() []NotifierConfig {
	var out []NotifierConfig
	for _, entry := range c.Entries() {
		if entry.IsEnabled() {
			out = append(out, entry)
		}
	}
	return out
}

func (c *NotifierConfig) normalize() {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))

	if h := c.HTTP; h != nil {
		h.URL = strings.TrimSpace(h.URL)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = webhookDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = webhookDefaultTimeout
		}
		h.Headers = trimHeaders(h.Headers)
	}
	if q := c.SQS; q != nil {
		q.QueueURL = strings.TrimSpace(q.QueueURL)
		q.Region = strings.TrimSpace(q.Region)
		q.AWSCredentials.trim()
	}
	if s := c.SNS; s != nil {
		s.TopicARN = strings.TrimSpace(s.TopicARN)
		s.Region = strings.TrimSpace(s.Region)
		s.AWSCredentials.trim()
	}
	if p := c.PubSub; p != nil {
		p.ProjectID = strings.TrimSpace(p.ProjectID)
		p.Topic = strings.TrimSpace(p.Topic)
		p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
		p.Endpoint = strings.TrimSpace(p.Endpoint)
	}
}

func (a *AWSCredentials) trim() {
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
}

func trimHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// check reports the fields the sink's type requires but lacks.
func (c NotifierConfig) check() error {
	if c.ID == "" {
		return errors.New("id is required")
	}

	var missing []string
	need := func(field, value string) {
		if value == "" {
			missing = append(missing, field)
		}
	}

	switch c.Type {
	case "":
		return fmt.Errorf("notifier %q: type is required", c.ID)
	case TypeHTTP:
		if c.HTTP == nil {
			return fmt.Errorf("notifier %q: http section is required", c.ID)
		}
		need("http.url", c.HTTP.URL)
	case TypeSQS:
		if c.SQS == nil {
			return fmt.Errorf("notifier %q: sqs section is required", c.ID)
		}
		need("sqs.uri", c.SQS.QueueURL)
		need("sqs.region", c.SQS.Region)
		if err := c.SQS.AWSCredentials.check(); err != nil {
			return fmt.Errorf("notifier %q: sqs %w", c.ID, err)
		}
	case TypeSNS:
		if c.SNS == nil {
			return fmt.Errorf("notifier %q: sns section is required", c.ID)
		}
		need("sns.topic_arn", c.SNS.TopicARN)
		need("sns.region", c.SNS.Region)
		if err := c.SNS.AWSCredentials.check(); err != nil {
			return fmt.Errorf("notifier %q: sns %w", c.ID, err)
		}
	case TypePubSub:
		if c.PubSub == nil {
			return fmt.Errorf("notifier %q: pubsub section is required", c.ID)
		}
		need("pubsub.project_id", c.PubSub.ProjectID)
		need("pubsub.topic", c.PubSub.Topic)
	}

	if len(missing) > 0 {
		return fmt.Errorf("notifier %q: missing %s", c.ID, strings.Join(missing, ", "))
	}
	return nil
}

func (a AWSCredentials) check() error {
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return errors.New("access_key_id and secret_access_key go together")
	}
	return nil
}
