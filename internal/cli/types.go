package cli

type uploadOptions struct {
	Name string
}

type downloadOptions struct {
	Output string
}

type presignOptions struct {
	ExpirySeconds int
}

type lsOptions struct {
	Prefix string
}

type statusOptions struct {
	Addr string
}
