package reconcile

import "fmt"

// dashRegions use the older "s3-website-<region>" endpoint form.
var dashRegions = map[string]struct{}{
	"us-east-1":      {},
	"us-west-1":      {},
	"us-west-2":      {},
	"eu-west-1":      {},
	"ap-southeast-1": {},
	"ap-southeast-2": {},
	"ap-northeast-1": {},
	"sa-east-1":      {},
	"us-gov-west-1":  {},
}

// WebsiteURL returns the static website endpoint of bucket in region.
func WebsiteURL(bucket, region string) string {
	if region == "" {
		region = "us-east-1"
	}
	if _, ok := dashRegions[region]; ok {
		return fmt.Sprintf("http://%s.s3-website-%s.amazonaws.com/", bucket, region)
	}
	return fmt.Sprintf("http://%s.s3-website.%s.amazonaws.com/", bucket, region)
}
