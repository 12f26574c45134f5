package models

// ServiceResponse is the envelope of every api answer, Data is nil whenever Error is set
type ServiceResponse[T any] struct {
	Data      *T     `json:"data"`
	Error     string `json:"error"`
	RequestId string `json:"requestId,omitempty"`
}

func GetServiceResponseOk[T any](data *T, requestId string) ServiceResponse[T] {
	return ServiceResponse[T]{
		Data:      data,
		RequestId: requestId,
	}
}

func GetServiceResponseError(err error, requestId string) ServiceResponse[any] {
	return ServiceResponse[any]{
		Error:     err.Error(),
		RequestId: requestId,
	}
}
