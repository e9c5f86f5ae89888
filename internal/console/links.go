// Package console builds deep links into the AWS web console from resource
// ARNs. Each service has its own URL construction rules, so the dispatch is
// a data table keyed by the ARN service segment rather than a conditional
// chain.
package console

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/stackpeek/stackpeek/internal/identity"
	"github.com/stackpeek/stackpeek/pkg/models"
)

// arn is a parsed ARN: arn:partition:service:region:account:resource.
type arn struct {
	Raw      string
	Service  string
	Region   string
	Account  string
	Resource string
}

func parseARN(s string) (arn, bool) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) < 6 || parts[0] != "arn" || parts[2] == "" {
		return arn{}, false
	}
	return arn{
		Raw:      s,
		Service:  parts[2],
		Region:   parts[3],
		Account:  parts[4],
		Resource: parts[5],
	}, true
}

// builders maps an ARN service segment to its link constructor. Entries
// return "" when the resource part is not shaped as expected.
var builders = map[string]func(region string, a arn) string{
	"lambda": func(region string, a arn) string {
		name := strings.TrimPrefix(a.Resource, "function:")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/lambda/home?region=%s#/functions/%s", region, region, name)
	},
	"s3": func(region string, a arn) string {
		return fmt.Sprintf("https://s3.console.aws.amazon.com/s3/buckets/%s?region=%s", a.Resource, region)
	},
	"dynamodb": func(region string, a arn) string {
		name := strings.TrimPrefix(a.Resource, "table/")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/dynamodbv2/home?region=%s#table?name=%s", region, region, name)
	},
	"sqs": func(region string, a arn) string {
		queueURL := fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", region, a.Account, a.Resource)
		return fmt.Sprintf("https://%s.console.aws.amazon.com/sqs/v3/home?region=%s#/queues/%s", region, region, url.QueryEscape(queueURL))
	},
	"sns": func(region string, a arn) string {
		return fmt.Sprintf("https://%s.console.aws.amazon.com/sns/v3/home?region=%s#/topic/%s", region, region, a.Raw)
	},
	"rds": func(region string, a arn) string {
		kind, id, ok := strings.Cut(a.Resource, ":")
		if !ok {
			return ""
		}
		isCluster := "false"
		if kind == "cluster" {
			isCluster = "true"
		}
		return fmt.Sprintf("https://%s.console.aws.amazon.com/rds/home?region=%s#database:id=%s;is-cluster=%s", region, region, id, isCluster)
	},
	"states": func(region string, a arn) string {
		return fmt.Sprintf("https://%s.console.aws.amazon.com/states/home?region=%s#/statemachines/view/%s", region, region, a.Raw)
	},
	"logs": func(region string, a arn) string {
		name := strings.TrimPrefix(a.Resource, "log-group:")
		// The CloudWatch console double-encodes log group names.
		escaped := strings.ReplaceAll(name, "/", "$252F")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/cloudwatch/home?region=%s#logsV2:log-groups/log-group/%s", region, region, escaped)
	},
	"apigateway": func(region string, a arn) string {
		id := strings.TrimPrefix(a.Resource, "/apis/")
		id, _, _ = strings.Cut(id, "/")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/apigateway/main/api-detail?api=%s&region=%s", region, id, region)
	},
	"iam": func(region string, a arn) string {
		kind, name, ok := strings.Cut(a.Resource, "/")
		if !ok {
			return ""
		}
		switch kind {
		case "role":
			return "https://console.aws.amazon.com/iam/home#/roles/" + name
		case "user":
			return "https://console.aws.amazon.com/iam/home#/users/" + name
		case "policy":
			return "https://console.aws.amazon.com/iam/home#/policies/details/" + url.QueryEscape(a.Raw)
		}
		return "https://console.aws.amazon.com/iam/home"
	},
	"events": func(region string, a arn) string {
		kind, name, ok := strings.Cut(a.Resource, "/")
		if !ok {
			return ""
		}
		switch kind {
		case "rule":
			return fmt.Sprintf("https://%s.console.aws.amazon.com/events/home?region=%s#/rules/%s", region, region, name)
		case "event-bus":
			return fmt.Sprintf("https://%s.console.aws.amazon.com/events/home?region=%s#/eventbus/%s", region, region, name)
		}
		return fmt.Sprintf("https://%s.console.aws.amazon.com/events/home?region=%s", region, region)
	},
	"cognito-idp": func(region string, a arn) string {
		id := strings.TrimPrefix(a.Resource, "userpool/")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/cognito/v2/idp/user-pools/%s/users?region=%s", region, id, region)
	},
	"secretsmanager": func(region string, a arn) string {
		name := strings.TrimPrefix(a.Resource, "secret:")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/secretsmanager/secret?name=%s&region=%s", region, url.QueryEscape(name), region)
	},
	"acm": func(region string, a arn) string {
		id := strings.TrimPrefix(a.Resource, "certificate/")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/acm/home?region=%s#/certificates/%s", region, region, id)
	},
	"cloudfront": func(region string, a arn) string {
		id := strings.TrimPrefix(a.Resource, "distribution/")
		return "https://console.aws.amazon.com/cloudfront/v4/home#/distributions/" + id
	},
	"appsync": func(region string, a arn) string {
		id := strings.TrimPrefix(a.Resource, "apis/")
		id, _, _ = strings.Cut(id, "/")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/appsync/home?region=%s#/%s/v1/home", region, region, id)
	},
	"kinesis": func(region string, a arn) string {
		name := strings.TrimPrefix(a.Resource, "stream/")
		return fmt.Sprintf("https://%s.console.aws.amazon.com/kinesis/home?region=%s#/streams/details/%s", region, region, name)
	},
	"ecs": func(region string, a arn) string {
		kind, name, ok := strings.Cut(a.Resource, "/")
		if !ok || kind != "cluster" {
			return fmt.Sprintf("https://%s.console.aws.amazon.com/ecs/v2/home?region=%s", region, region)
		}
		return fmt.Sprintf("https://%s.console.aws.amazon.com/ecs/v2/clusters/%s?region=%s", region, name, region)
	},
	"ec2": func(region string, a arn) string {
		kind, id, ok := strings.Cut(a.Resource, "/")
		if !ok {
			return ""
		}
		base := fmt.Sprintf("https://%s.console.aws.amazon.com", region)
		switch kind {
		case "vpc":
			return fmt.Sprintf("%s/vpcconsole/home?region=%s#VpcDetails:VpcId=%s", base, region, id)
		case "subnet":
			return fmt.Sprintf("%s/vpcconsole/home?region=%s#SubnetDetails:SubnetId=%s", base, region, id)
		case "security-group":
			return fmt.Sprintf("%s/ec2/home?region=%s#SecurityGroup:groupId=%s", base, region, id)
		case "instance":
			return fmt.Sprintf("%s/ec2/home?region=%s#InstanceDetails:instanceId=%s", base, region, id)
		case "internet-gateway":
			return fmt.Sprintf("%s/vpcconsole/home?region=%s#InternetGateway:internetGatewayId=%s", base, region, id)
		case "natgateway":
			return fmt.Sprintf("%s/vpcconsole/home?region=%s#NatGatewayDetails:natGatewayId=%s", base, region, id)
		case "route-table":
			return fmt.Sprintf("%s/vpcconsole/home?region=%s#RouteTableDetails:RouteTableId=%s", base, region, id)
		}
		return fmt.Sprintf("%s/ec2/home?region=%s", base, region)
	},
}

// idFallbacks builds links for resources that only carry a bare physical
// id, dispatched by simple type instead of ARN service.
var idFallbacks = map[string]func(region, id string) string{
	"Bucket": func(region, id string) string {
		return fmt.Sprintf("https://s3.console.aws.amazon.com/s3/buckets/%s?region=%s", id, region)
	},
	"Function": func(region, id string) string {
		return fmt.Sprintf("https://%s.console.aws.amazon.com/lambda/home?region=%s#/functions/%s", region, region, id)
	},
	"Table": func(region, id string) string {
		return fmt.Sprintf("https://%s.console.aws.amazon.com/dynamodbv2/home?region=%s#table?name=%s", region, region, id)
	},
}

// Link builds a deep link into the AWS console page for r, or "" when the
// resource carries nothing linkable. Never returns a broken URL.
func Link(r models.Resource, region string) string {
	raw, _ := r.Outputs["arn"].(string)
	if raw == "" && strings.HasPrefix(r.ID, "arn:") {
		raw = r.ID
	}

	if raw == "" {
		if r.ID == "" {
			return ""
		}
		build, ok := idFallbacks[identity.SimpleType(r.Type)]
		if !ok {
			return ""
		}
		return build(effectiveRegion("", region), r.ID)
	}

	a, ok := parseARN(raw)
	if !ok {
		return ""
	}

	reg := effectiveRegion(a.Region, region)
	build, ok := builders[a.Service]
	if !ok {
		// Unknown service: land on the console home rather than a dead link.
		return fmt.Sprintf("https://%s.console.aws.amazon.com/console/home?region=%s", reg, reg)
	}
	return build(reg, a)
}

func effectiveRegion(arnRegion, fallback string) string {
	if arnRegion != "" {
		return arnRegion
	}
	if fallback != "" {
		return fallback
	}
	return "us-east-1"
}
