package hunt

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"

	"github.com/stackpeek/stackpeek/pkg/models"
)

// Provenance tags the SST toolchain stamps on every resource it provisions.
const (
	appTagKey   = "sst:app"
	stageTagKey = "sst:stage"
)

// Wildcard is the filter value meaning "any".
const Wildcard = "*"

// TagFetcher returns every cloud resource carrying the requested provenance
// tags, paginated to exhaustion before returning.
type TagFetcher interface {
	FetchTaggedResources(ctx context.Context, app, stage string) ([]models.ObservedResource, error)
}

type awsFetcher struct {
	client *resourcegroupstaggingapi.Client
}

// NewAWSFetcher builds a TagFetcher over the AWS Resource Groups Tagging
// API using the default credential chain.
func NewAWSFetcher(ctx context.Context, region string) (TagFetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, classifyAWSError(err)
	}
	return &awsFetcher{client: resourcegroupstaggingapi.NewFromConfig(cfg)}, nil
}

func (f *awsFetcher) FetchTaggedResources(ctx context.Context, app, stage string) ([]models.ObservedResource, error) {
	input := &resourcegroupstaggingapi.GetResourcesInput{
		TagFilters: []types.TagFilter{
			tagFilter(appTagKey, app),
			tagFilter(stageTagKey, stage),
		},
	}

	var observed []models.ObservedResource
	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(f.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyAWSError(err)
		}
		for _, m := range page.ResourceTagMappingList {
			obs := models.ObservedResource{ARN: aws.ToString(m.ResourceARN)}
			for _, t := range m.Tags {
				obs.Tags = append(obs.Tags, models.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
			}
			observed = append(observed, obs)
		}
	}
	return observed, nil
}

// tagFilter builds a filter for one provenance tag. A wildcard value still
// requires the key to be present, so untagged resources outside the
// toolchain do not flood the scan.
func tagFilter(key, value string) types.TagFilter {
	filter := types.TagFilter{Key: aws.String(key)}
	if value != "" && value != Wildcard {
		filter.Values = []string{value}
	}
	return filter
}
