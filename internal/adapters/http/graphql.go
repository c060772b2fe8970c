package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the assessment state.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	safetyScoreType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SafetyScore",
		Fields: graphql.Fields{
			"total":          &graphql.Field{Type: graphql.Int},
			"lighting":       &graphql.Field{Type: graphql.Int},
			"safety_history": &graphql.Field{Type: graphql.Int},
			"crowd_activity": &graphql.Field{Type: graphql.Int},
			"description":    &graphql.Field{Type: graphql.String},
		},
	})

	threatZoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ThreatZone",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"center":    &graphql.Field{Type: coordinateType},
			"radius_m":  &graphql.Field{Type: graphql.Float},
			"intensity": &graphql.Field{Type: graphql.String},
			"reason":    &graphql.Field{Type: graphql.String},
		},
	})

	routePlanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoutePlan",
		Fields: graphql.Fields{
			"points":        &graphql.Field{Type: graphql.NewList(coordinateType)},
			"distance":      &graphql.Field{Type: graphql.String},
			"duration":      &graphql.Field{Type: graphql.String},
			"safety_rating": &graphql.Field{Type: graphql.String},
		},
	})

	riskPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RiskPoint",
		Fields: graphql.Fields{
			"time":  &graphql.Field{Type: graphql.String},
			"score": &graphql.Field{Type: graphql.Int},
		},
	})

	chatMessageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ChatMessage",
		Fields: graphql.Fields{
			"role": &graphql.Field{Type: graphql.String},
			"text": &graphql.Field{Type: graphql.String},
		},
	})

	assessmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Assessment",
		Fields: graphql.Fields{
			"location":    &graphql.Field{Type: coordinateType},
			"destination": &graphql.Field{Type: coordinateType},
			"score":       &graphql.Field{Type: safetyScoreType},
			"zones":       &graphql.Field{Type: graphql.NewList(threatZoneType)},
			"route":       &graphql.Field{Type: routePlanType},
			"trend":       &graphql.Field{Type: graphql.NewList(riskPointType)},
			"distress":    &graphql.Field{Type: graphql.Boolean},
			"loading":     &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"assessment": &graphql.Field{
				Type:        assessmentType,
				Description: "The full current assessment snapshot",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.State.Snapshot(), nil
				},
			},
			"threatZones": &graphql.Field{
				Type:        graphql.NewList(threatZoneType),
				Description: "Current threat zones around the user",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.State.Snapshot().Zones, nil
				},
			},
			"riskTrend": &graphql.Field{
				Type:        graphql.NewList(riskPointType),
				Description: "Predicted risk score over the coming hours",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.State.Snapshot().Trend, nil
				},
			},
			"transcript": &graphql.Field{
				Type:        graphql.NewList(chatMessageType),
				Description: "Chat transcript with the safety assistant",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.State.Transcript(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}

var _ = domain.AssessmentSnapshot{}
