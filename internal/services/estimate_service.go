package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	domain "github.com/fullservice-mx/api/internal/domain"
)

var (
	// ErrEstimateInvalidInput indicates the estimate request carried no usable input.
	ErrEstimateInvalidInput = errors.New("estimate: invalid input")
	// ErrEstimateUnavailable indicates the remote suggester could not be reached or answered badly.
	ErrEstimateUnavailable = errors.New("estimate: provider unavailable")
)

// DefaultHourlyRate is the shop labor rate used when none is supplied.
const DefaultHourlyRate = 350.0

// HeuristicSuggesterDeps configures the local estimate suggester.
type HeuristicSuggesterDeps struct {
	HourlyRate float64
	Logger     *zap.Logger
}

type heuristicSuggester struct {
	hourlyRate float64
	logger     *zap.Logger
}

// NewHeuristicSuggester constructs the local arithmetic estimate suggester.
func NewHeuristicSuggester(deps HeuristicSuggesterDeps) EstimateSuggester {
	rate := deps.HourlyRate
	if rate <= 0 {
		rate = DefaultHourlyRate
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &heuristicSuggester{hourlyRate: rate, logger: logger}
}

func (s *heuristicSuggester) Suggest(ctx context.Context, req EstimateRequest) (EstimateSuggestion, error) {
	figures := req.Figures
	if figures == nil {
		derived, ok := deriveFigures(req)
		if !ok {
			return EstimateSuggestion{}, fmt.Errorf("%w: no figures and no service description", ErrEstimateInvalidInput)
		}
		figures = &derived
	}

	hourlyRate := figures.HourlyRate
	if hourlyRate <= 0 {
		hourlyRate = s.hourlyRate
	}
	laborCost := figures.LaborHours * hourlyRate
	subtotal := laborCost + figures.PartsCost + figures.SuppliesCost

	discount := subtotal * figures.DiscountPercent / 100
	if discount < 0 {
		discount = 0
	}
	afterDiscount := subtotal - discount
	tax := afterDiscount * domain.DefaultTaxRate

	return EstimateSuggestion{
		LaborCost:      laborCost,
		PartsCost:      figures.PartsCost,
		SuppliesCost:   figures.SuppliesCost,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          afterDiscount + tax,
	}, nil
}

// estimateRule maps a keyword found in the service request to cost figures.
type estimateRule struct {
	keyword    string
	laborHours float64
	partsCost  float64
}

var estimateRules = []estimateRule{
	{keyword: "aceite", laborHours: 0.5, partsCost: 850},
	{keyword: "balatas", laborHours: 1.5, partsCost: 1400},
	{keyword: "frenos", laborHours: 1.5, partsCost: 1400},
	{keyword: "bujías", laborHours: 1, partsCost: 600},
	{keyword: "bujias", laborHours: 1, partsCost: 600},
	{keyword: "llantas", laborHours: 0.5, partsCost: 0},
	{keyword: "filtro", laborHours: 0.2, partsCost: 350},
	{keyword: "batería", laborHours: 0.3, partsCost: 2200},
	{keyword: "bateria", laborHours: 0.3, partsCost: 2200},
	{keyword: "suspensión", laborHours: 2, partsCost: 3000},
	{keyword: "suspension", laborHours: 2, partsCost: 3000},
}

// deriveFigures translates the vehicle-shaped input into cost figures using
// keyword rules over the requested services and checklist notes.
func deriveFigures(req EstimateRequest) (EstimateFigures, bool) {
	text := strings.ToLower(req.SelectedServices + " " + req.ChecklistNotes)
	if strings.TrimSpace(text) == "" {
		return EstimateFigures{}, false
	}

	figures := EstimateFigures{}
	matched := false
	for _, rule := range estimateRules {
		if strings.Contains(text, rule.keyword) {
			figures.LaborHours += rule.laborHours
			figures.PartsCost += rule.partsCost
			matched = true
		}
	}
	if !matched {
		// Unrecognised free text still gets a diagnostic hour.
		figures.LaborHours = 1
	}
	figures.SuppliesCost = 150
	return figures, true
}

// RemoteSuggesterDeps configures the external estimate provider client.
type RemoteSuggesterDeps struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type remoteSuggester struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

// NewRemoteSuggester constructs a suggester that delegates to a configured
// HTTP endpoint.
func NewRemoteSuggester(deps RemoteSuggesterDeps) (EstimateSuggester, error) {
	if strings.TrimSpace(deps.Endpoint) == "" {
		return nil, errors.New("remote suggester: endpoint is required")
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &remoteSuggester{
		endpoint: deps.Endpoint,
		token:    deps.Token,
		client:   client,
		logger:   logger,
	}, nil
}

type remoteSuggestRequest struct {
	VehicleMake      string `json:"vehicleMake"`
	VehicleModel     string `json:"vehicleModel"`
	VehicleYear      int    `json:"vehicleYear"`
	SelectedServices string `json:"selectedServices"`
	ChecklistNotes   string `json:"checklistNotes"`
}

type remoteSuggestResponse struct {
	LaborCost    float64 `json:"laborCost"`
	PartsCost    float64 `json:"partsCost"`
	SuppliesCost float64 `json:"suppliesCost"`
	Discount     float64 `json:"discount"`
	IVA          float64 `json:"iva"`
	TotalCost    float64 `json:"totalCost"`
}

func (s *remoteSuggester) Suggest(ctx context.Context, req EstimateRequest) (EstimateSuggestion, error) {
	if strings.TrimSpace(req.SelectedServices) == "" && strings.TrimSpace(req.ChecklistNotes) == "" {
		return EstimateSuggestion{}, fmt.Errorf("%w: service description is required", ErrEstimateInvalidInput)
	}

	payload, err := json.Marshal(remoteSuggestRequest{
		VehicleMake:      req.VehicleMake,
		VehicleModel:     req.VehicleModel,
		VehicleYear:      req.VehicleYear,
		SelectedServices: req.SelectedServices,
		ChecklistNotes:   req.ChecklistNotes,
	})
	if err != nil {
		return EstimateSuggestion{}, fmt.Errorf("remote suggester: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return EstimateSuggestion{}, fmt.Errorf("remote suggester: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return EstimateSuggestion{}, fmt.Errorf("%w: %v", ErrEstimateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("estimate provider rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return EstimateSuggestion{}, fmt.Errorf("%w: status %d", ErrEstimateUnavailable, resp.StatusCode)
	}

	var decoded remoteSuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return EstimateSuggestion{}, fmt.Errorf("%w: decode response: %v", ErrEstimateUnavailable, err)
	}

	return EstimateSuggestion{
		LaborCost:      decoded.LaborCost,
		PartsCost:      decoded.PartsCost,
		SuppliesCost:   decoded.SuppliesCost,
		Subtotal:       decoded.LaborCost + decoded.PartsCost + decoded.SuppliesCost,
		DiscountAmount: decoded.Discount,
		TaxAmount:      decoded.IVA,
		Total:          decoded.TotalCost,
	}, nil
}

type serviceAnalyzer struct{}

// NewServiceAnalyzer constructs the static advisory analyzer.
func NewServiceAnalyzer() ServiceAnalyzer {
	return &serviceAnalyzer{}
}

func (a *serviceAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (ServiceAnalysis, error) {
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.VisitReason) == "" {
		return ServiceAnalysis{}, fmt.Errorf("%w: description or visit reason is required", ErrEstimateInvalidInput)
	}

	text := strings.ToLower(req.Description + " " + req.VisitReason)
	var flags, suggestions []string

	if req.Kilometers >= 100000 {
		flags = append(flags, "kilometraje alto")
		suggestions = append(suggestions, "Revisión de banda de distribución y soportes de motor")
	}
	if strings.Contains(text, "aceite") {
		suggestions = append(suggestions, "Cambio de Aceite con filtro incluido")
	}
	if strings.Contains(text, "ruido") {
		flags = append(flags, "ruido reportado")
		suggestions = append(suggestions, "Diagnóstico de suspensión y frenos")
	}
	if strings.Contains(text, "freno") || strings.Contains(text, "balatas") {
		flags = append(flags, "sistema de frenos")
		suggestions = append(suggestions, "Reemplazo de Balatas y revisión de discos")
	}
	if req.Year > 0 && req.Year <= 2016 {
		suggestions = append(suggestions, "Revisión de mangueras y bandas por antigüedad del vehículo")
	}

	summary := "Sin hallazgos destacados; servicio de rutina sugerido."
	if len(flags) > 0 {
		summary = fmt.Sprintf("Se identificaron %d puntos de atención: %s.", len(flags), strings.Join(flags, ", "))
	}

	return ServiceAnalysis{
		Summary:     summary,
		Flags:       flags,
		Suggestions: suggestions,
	}, nil
}
