package tools

import (
	"context"
	"encoding/json"
)

// CityInfoTool runs GraphQL queries against the city info service.
type CityInfoTool struct {
	gw *Gateway
}

// NewCityInfoTool creates the GraphQL city info tool.
func NewCityInfoTool(gw *Gateway) *CityInfoTool {
	return &CityInfoTool{gw: gw}
}

func (t *CityInfoTool) Name() string {
	return "query_city_info"
}

func (t *CityInfoTool) Description() string {
	return "Get general city info (points of interest, events, etc.) using GraphQL. " +
		"When querying for an object like 'category' or 'zone', you must specify which sub-fields you want, " +
		"for example: 'pointsOfInterest { name category { name } }'."
}

func (t *CityInfoTool) Params() []Param {
	return []Param{
		{Name: "query", Type: "string", Description: "A valid GraphQL query string. For example: '{ pointsOfInterest { name category { name } } }'", Required: true},
	}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

func (t *CityInfoTool) Execute(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	query, err := requireString(t.Name(), params, "query")
	if err != nil {
		return nil, err
	}
	body, err := t.gw.PostJSON(ctx, "/graphql", graphQLRequest{Query: query})
	if err != nil {
		return nil, &ServiceError{Service: "GraphQL", Err: err}
	}
	return body, nil
}
