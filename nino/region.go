package nino

// Region represents a target AWS region for client creation.
type Region interface {
	// resolve returns the AWS region string using the environment.
	resolve(env Environment) string
}

// localRegion uses the AWS_REGION environment variable.
type localRegion struct{}

func (localRegion) resolve(env Environment) string {
	return env.awsRegion()
}

// LocalRegion returns a Region that uses AWS_REGION.
func LocalRegion() Region {
	return localRegion{}
}

// brokerRegion uses BROKER_REGION and falls back to AWS_REGION when it is not set.
type brokerRegion struct{}

func (brokerRegion) resolve(env Environment) string {
	if r := env.brokerRegion(); r != "" {
		return r
	}

	return env.awsRegion()
}

// BrokerRegion returns a Region for the queue the broker talks to.
func BrokerRegion() Region {
	return brokerRegion{}
}

// fixedRegion uses a hardcoded region string.
type fixedRegion string

func (r fixedRegion) resolve(_ Environment) string {
	return string(r)
}

// FixedRegion returns a Region that uses a specific region string.
func FixedRegion(region string) Region {
	return fixedRegion(region)
}
