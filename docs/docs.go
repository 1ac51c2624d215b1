// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/imagery/nearby-cached": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "Cached imagery near a point",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Radius in km",
                        "name": "radius",
                        "in": "query",
                        "default": 2
                    },
                    {
                        "type": "integer",
                        "description": "Maximum records",
                        "name": "limit",
                        "in": "query",
                        "default": 50
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                },
                "description": "Reads the cache. When the neighbourhood is stale a refresh is started in the background and stale is true."
            }
        },
        "/api/imagery/populate": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "Aggregate and store imagery",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "number",
                        "description": "Radius in km",
                        "name": "radius",
                        "in": "query",
                        "default": 2
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                },
                "description": "Queries every configured provider and writes the results to the cache. Defaults to the seed point."
            }
        },
        "/api/imagery/refresh": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "Refresh the cache now",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Radius in km",
                        "name": "radius",
                        "in": "query",
                        "default": 2
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                },
                "description": "Aggregates and stores imagery, waiting for completion, then returns the cached neighbourhood."
            }
        },
        "/api/imagery/nearby": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "Live imagery near a point",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Radius in km",
                        "name": "radius",
                        "in": "query",
                        "default": 2
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                },
                "description": "Queries the providers directly, bypassing the cache."
            }
        },
        "/api/imagery/random": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "A random image near a point",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Radius in km",
                        "name": "radius",
                        "in": "query",
                        "default": 2
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.ImageRecord"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                },
                "description": "Picks among the closest live results."
            }
        },
        "/api/imagery/geojson": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "Cached imagery as GeoJSON",
                "parameters": [
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Radius in km",
                        "name": "radius",
                        "in": "query",
                        "default": 2
                    },
                    {
                        "type": "integer",
                        "description": "Maximum records",
                        "name": "limit",
                        "in": "query",
                        "default": 50
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/api/imagery/providers": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "imagery"
                ],
                "summary": "Configured providers and their health",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/api/locations": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "locations"
                ],
                "summary": "Find a location",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Imagery id stored on the location",
                        "name": "external_id",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Latitude (alias lat)",
                        "name": "latitude",
                        "in": "query"
                    },
                    {
                        "type": "number",
                        "description": "Longitude (alias lon)",
                        "name": "longitude",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Location"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                },
                "description": "By external_id, or by exact latitude and longitude."
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "locations"
                ],
                "summary": "Add or retag a location",
                "description": "Stores a location. A location already at exactly these coordinates has its tags replaced.",
                "parameters": [
                    {
                        "description": "Location",
                        "name": "location",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.addLocationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.Location"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.addLocationRequest": {
            "type": "object",
            "required": [
                "latitude",
                "longitude"
            ],
            "properties": {
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                },
                "hotspot": {
                    "type": "boolean"
                },
                "near_greenery": {
                    "type": "boolean"
                },
                "halal": {
                    "type": "boolean"
                },
                "crowded": {
                    "type": "boolean"
                }
            }
        },
        "models.Location": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "external_id": {
                    "type": "string"
                },
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                },
                "hotspot": {
                    "type": "boolean"
                },
                "near_greenery": {
                    "type": "boolean"
                },
                "halal": {
                    "type": "boolean"
                },
                "crowded": {
                    "type": "boolean"
                },
                "created_at": {
                    "type": "string"
                }
            }
        },
        "models.ImageRecord": {
            "type": "object",
            "properties": {
                "external_id": {
                    "type": "string"
                },
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                },
                "captured_at": {
                    "type": "integer"
                },
                "compass_angle": {
                    "type": "number"
                },
                "thumbnail_url": {
                    "type": "string"
                },
                "full_image_url": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                },
                "cached_at": {
                    "type": "string"
                },
                "source": {
                    "type": "string",
                    "enum": [
                        "street-level",
                        "synthetic-map"
                    ]
                },
                "street_level": {
                    "$ref": "#/definitions/models.StreetLevelDetails"
                },
                "synthetic_map": {
                    "$ref": "#/definitions/models.SyntheticMapDetails"
                }
            }
        },
        "models.StreetLevelDetails": {
            "type": "object",
            "properties": {
                "is_pano": {
                    "type": "boolean"
                }
            }
        },
        "models.SyntheticMapDetails": {
            "type": "object",
            "properties": {
                "style": {
                    "type": "string"
                },
                "zoom": {
                    "type": "integer"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Nearby Imagery API",
	Description:      "Street-level and synthetic map imagery around a point, served from a spatial cache.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
